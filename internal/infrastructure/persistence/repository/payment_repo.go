package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/persistence/sqlite"
)

// PaymentRepository implements port.PaymentRepository on SQLite
type PaymentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sqlite.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{db: db, logger: logger}
}

// Create records a payment against an application
func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO admission_payments (
			application_id, transaction_id, amount, method, status,
			bank_name, receipt_number, receipt_path, notes, paid_at,
			verified_by, verified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		payment.ApplicationID,
		payment.TransactionID,
		payment.Amount.String(),
		payment.Method,
		payment.Status,
		payment.BankName,
		payment.ReceiptNumber,
		payment.ReceiptPath,
		payment.Notes,
		payment.PaidAt,
		payment.VerifiedBy,
		payment.VerifiedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment", zap.Int64("application_id", payment.ApplicationID), zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	payment.ID = id
	return nil
}

// ListByApplication returns an application's payments, oldest first
func (r *PaymentRepository) ListByApplication(ctx context.Context, applicationID int64) ([]*entity.Payment, error) {
	query := `
		SELECT id, application_id, transaction_id, amount, method, status,
			bank_name, receipt_number, receipt_path, notes, paid_at,
			verified_by, verified_at, created_at
		FROM admission_payments
		WHERE application_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, applicationID)
	if err != nil {
		r.logger.Error("Failed to list payments", zap.Int64("application_id", applicationID), zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		var (
			p          entity.Payment
			amount     string
			bankName   sql.NullString
			receiptNo  sql.NullString
			receiptAt  sql.NullString
			notes      sql.NullString
			verifiedBy sql.NullInt64
			verifiedAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.ApplicationID, &p.TransactionID, &amount,
			&p.Method, &p.Status, &bankName, &receiptNo, &receiptAt, &notes,
			&p.PaidAt, &verifiedBy, &verifiedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid payment amount %q: %w", amount, err)
		}
		p.BankName = bankName.String
		p.ReceiptNumber = receiptNo.String
		p.ReceiptPath = receiptAt.String
		p.Notes = notes.String
		if verifiedBy.Valid {
			p.VerifiedBy = &verifiedBy.Int64
		}
		if verifiedAt.Valid {
			p.VerifiedAt = &verifiedAt.Time
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

// SumCompleted returns the total of COMPLETED payments toward the fee.
// Amounts are summed in Go to keep decimal arithmetic exact.
func (r *PaymentRepository) SumCompleted(ctx context.Context, applicationID int64) (decimal.Decimal, error) {
	query := `SELECT amount FROM admission_payments WHERE application_id = ? AND status = ?`

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, applicationID, entity.PaymentStatusCompleted)
	if err != nil {
		r.logger.Error("Failed to sum payments", zap.Int64("application_id", applicationID), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid payment amount %q: %w", amount, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}
