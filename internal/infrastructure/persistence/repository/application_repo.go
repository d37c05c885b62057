package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/persistence/sqlite"
)

const applicationColumns = `
	id, program_id, full_name, full_name_ar, email, phone, national_id,
	date_of_birth, gender, nationality, country, city, address,
	high_school_name, high_school_score, high_school_year, documents, notes,
	source, metadata, status, reviewer_notes, registration_fee, reviewed_by,
	approved_by, student_id, documents_verified_at, payment_requested_at,
	payment_received_at, approved_at, acceptance_letter_path,
	university_card_path, submitted_at, created_at, updated_at, deleted_at`

// ApplicationRepository implements port.ApplicationRepository on SQLite
type ApplicationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *sqlite.DB, logger *zap.Logger) port.ApplicationRepository {
	return &ApplicationRepository{db: db, logger: logger}
}

// Create inserts a new application and sets its generated id
func (r *ApplicationRepository) Create(ctx context.Context, app *entity.Application) error {
	query := `
		INSERT INTO admission_applications (
			program_id, full_name, full_name_ar, email, phone, national_id,
			date_of_birth, gender, nationality, country, city, address,
			high_school_name, high_school_score, high_school_year, documents,
			notes, source, metadata, status, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		app.ProgramID,
		app.FullName,
		app.FullNameAr,
		app.Email,
		app.Phone,
		app.NationalID,
		app.DateOfBirth,
		app.Gender,
		app.Nationality,
		app.Country,
		app.City,
		app.Address,
		app.HighSchoolName,
		app.HighSchoolScore,
		app.HighSchoolYear,
		app.Documents,
		app.Notes,
		app.Source,
		app.Metadata,
		app.Status.String(),
		app.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create application", zap.Error(err))
		return fmt.Errorf("failed to create application: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	app.ID = id
	return nil
}

// GetByID retrieves an application by id; returns (nil, nil) when missing
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*entity.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM admission_applications WHERE id = ? AND deleted_at IS NULL`
	return r.queryOne(ctx, query, id)
}

// GetByNationalID retrieves an application by its national identifier
func (r *ApplicationRepository) GetByNationalID(ctx context.Context, nationalID string) (*entity.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM admission_applications WHERE national_id = ? AND deleted_at IS NULL`
	return r.queryOne(ctx, query, nationalID)
}

// GetByEmailOrNationalID retrieves the most recent application matching
// either applicant key, for the public status lookup
func (r *ApplicationRepository) GetByEmailOrNationalID(ctx context.Context, key string) (*entity.Application, error) {
	query := `SELECT ` + applicationColumns + `
		FROM admission_applications
		WHERE (email = ? OR national_id = ?) AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`
	return r.queryOne(ctx, query, key, key)
}

// Update persists the application's process fields and status
func (r *ApplicationRepository) Update(ctx context.Context, app *entity.Application) error {
	query := `
		UPDATE admission_applications SET
			status = ?, reviewer_notes = ?, registration_fee = ?,
			reviewed_by = ?, approved_by = ?, student_id = ?,
			documents_verified_at = ?, payment_requested_at = ?,
			payment_received_at = ?, approved_at = ?,
			acceptance_letter_path = ?, university_card_path = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL
	`

	_, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		app.Status.String(),
		app.ReviewerNotes,
		app.RegistrationFee,
		app.ReviewedBy,
		app.ApprovedBy,
		app.StudentID,
		app.DocumentsVerifiedAt,
		app.PaymentRequestedAt,
		app.PaymentReceivedAt,
		app.ApprovedAt,
		app.AcceptanceLetterPath,
		app.UniversityCardPath,
		app.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update application", zap.Int64("id", app.ID), zap.Error(err))
		return fmt.Errorf("failed to update application: %w", err)
	}
	return nil
}

// SoftDelete hides the application from listings while retaining it for audit
func (r *ApplicationRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE admission_applications SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	_, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query, at, id)
	if err != nil {
		r.logger.Error("Failed to soft delete application", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to soft delete application: %w", err)
	}
	return nil
}

// List retrieves applications matching the filter, newest first, plus the total count
func (r *ApplicationRepository) List(ctx context.Context, filter port.ApplicationFilter) ([]*entity.Application, int, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status.String())
	}
	if filter.ProgramID > 0 {
		where = append(where, "program_id = ?")
		args = append(args, filter.ProgramID)
	}
	if filter.AwaitingAction {
		awaiting := workflow.AwaitingStatuses()
		placeholders := make([]string, len(awaiting))
		for i, s := range awaiting {
			placeholders[i] = "?"
			args = append(args, s.String())
		}
		where = append(where, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM admission_applications WHERE ` + whereClause
	if err := r.db.ExecutorFrom(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	query := `SELECT ` + applicationColumns + `
		FROM admission_applications
		WHERE ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list applications", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*entity.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, app)
	}
	return apps, total, rows.Err()
}

// CountByStatus returns the number of live applications per status
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (map[workflow.Status]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM admission_applications
		WHERE deleted_at IS NULL
		GROUP BY status
	`

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to count applications by status", zap.Error(err))
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[workflow.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[workflow.Status(status)] = n
	}
	return counts, rows.Err()
}

func (r *ApplicationRepository) queryOne(ctx context.Context, query string, args ...any) (*entity.Application, error) {
	app, err := scanApplication(r.db.ExecutorFrom(ctx).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get application", zap.Error(err))
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*entity.Application, error) {
	var (
		app          entity.Application
		fullNameAr   sql.NullString
		country      sql.NullString
		city         sql.NullString
		address      sql.NullString
		hsName       sql.NullString
		hsScore      sql.NullFloat64
		hsYear       sql.NullInt64
		documents    sql.NullString
		notes        sql.NullString
		source       sql.NullString
		metadata     sql.NullString
		status       string
		reviewNotes  sql.NullString
		reviewedBy   sql.NullInt64
		approvedBy   sql.NullInt64
		studentID    sql.NullString
		docsAt       sql.NullTime
		payReqAt     sql.NullTime
		payRecAt     sql.NullTime
		approvedAt   sql.NullTime
		letterPath   sql.NullString
		cardPath     sql.NullString
		deletedAt    sql.NullTime
	)

	err := row.Scan(
		&app.ID,
		&app.ProgramID,
		&app.FullName,
		&fullNameAr,
		&app.Email,
		&app.Phone,
		&app.NationalID,
		&app.DateOfBirth,
		&app.Gender,
		&app.Nationality,
		&country,
		&city,
		&address,
		&hsName,
		&hsScore,
		&hsYear,
		&documents,
		&notes,
		&source,
		&metadata,
		&status,
		&reviewNotes,
		&app.RegistrationFee,
		&reviewedBy,
		&approvedBy,
		&studentID,
		&docsAt,
		&payReqAt,
		&payRecAt,
		&approvedAt,
		&letterPath,
		&cardPath,
		&app.SubmittedAt,
		&app.CreatedAt,
		&app.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	app.FullNameAr = fullNameAr.String
	app.Country = country.String
	app.City = city.String
	app.Address = address.String
	app.HighSchoolName = hsName.String
	if hsScore.Valid {
		app.HighSchoolScore = &hsScore.Float64
	}
	if hsYear.Valid {
		year := int(hsYear.Int64)
		app.HighSchoolYear = &year
	}
	app.Documents = documents.String
	app.Notes = notes.String
	app.Source = source.String
	app.Metadata = metadata.String
	app.Status = workflow.Status(status)
	app.ReviewerNotes = reviewNotes.String
	if reviewedBy.Valid {
		app.ReviewedBy = &reviewedBy.Int64
	}
	if approvedBy.Valid {
		app.ApprovedBy = &approvedBy.Int64
	}
	if studentID.Valid {
		app.StudentID = &studentID.String
	}
	if docsAt.Valid {
		app.DocumentsVerifiedAt = &docsAt.Time
	}
	if payReqAt.Valid {
		app.PaymentRequestedAt = &payReqAt.Time
	}
	if payRecAt.Valid {
		app.PaymentReceivedAt = &payRecAt.Time
	}
	if approvedAt.Valid {
		app.ApprovedAt = &approvedAt.Time
	}
	app.AcceptanceLetterPath = letterPath.String
	app.UniversityCardPath = cardPath.String
	if deletedAt.Valid {
		app.DeletedAt = &deletedAt.Time
	}

	return &app, nil
}
