package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/persistence/sqlite"
)

// OutboxRepository implements port.OutboxRepository on SQLite
type OutboxRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *sqlite.DB, logger *zap.Logger) port.OutboxRepository {
	return &OutboxRepository{db: db, logger: logger}
}

// Create appends a pending side-effect intent
func (r *OutboxRepository) Create(ctx context.Context, msg *entity.OutboxMessage) error {
	query := `
		INSERT INTO admission_outbox (application_id, kind, payload, status, attempts, next_attempt_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`

	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		msg.ApplicationID,
		msg.Kind,
		msg.Payload,
		entity.OutboxStatusPending,
		msg.NextAttemptAt,
	)
	if err != nil {
		r.logger.Error("Failed to create outbox message", zap.Int64("application_id", msg.ApplicationID), zap.Error(err))
		return fmt.Errorf("failed to create outbox message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	msg.ID = id
	msg.Status = entity.OutboxStatusPending
	return nil
}

// ListDue returns pending messages whose next attempt time has passed,
// oldest first
func (r *OutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*entity.OutboxMessage, error) {
	query := `
		SELECT id, application_id, kind, payload, status, attempts, next_attempt_at, last_error, created_at, sent_at
		FROM admission_outbox
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY id ASC
		LIMIT ?
	`

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, entity.OutboxStatusPending, now, limit)
	if err != nil {
		r.logger.Error("Failed to list due outbox messages", zap.Error(err))
		return nil, fmt.Errorf("failed to list due outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*entity.OutboxMessage
	for rows.Next() {
		var (
			msg       entity.OutboxMessage
			lastError sql.NullString
			sentAt    sql.NullTime
		)
		if err := rows.Scan(&msg.ID, &msg.ApplicationID, &msg.Kind, &msg.Payload,
			&msg.Status, &msg.Attempts, &msg.NextAttemptAt, &lastError,
			&msg.CreatedAt, &sentAt); err != nil {
			return nil, err
		}
		msg.LastError = lastError.String
		if sentAt.Valid {
			msg.SentAt = &sentAt.Time
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// MarkSent records a successful delivery
func (r *OutboxRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE admission_outbox SET status = ?, sent_at = ? WHERE id = ?`
	_, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query, entity.OutboxStatusSent, at, id)
	if err != nil {
		r.logger.Error("Failed to mark outbox message sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark outbox message sent: %w", err)
	}
	return nil
}

// MarkRetry schedules another attempt after a failure
func (r *OutboxRepository) MarkRetry(ctx context.Context, id int64, attempts int, nextAttempt time.Time, lastError string) error {
	query := `UPDATE admission_outbox SET attempts = ?, next_attempt_at = ?, last_error = ? WHERE id = ?`
	_, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query, attempts, nextAttempt, lastError, id)
	if err != nil {
		r.logger.Error("Failed to mark outbox message for retry", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark outbox message for retry: %w", err)
	}
	return nil
}

// MarkFailed gives up on a message after exhausting its attempts
func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, attempts int, lastError string) error {
	query := `UPDATE admission_outbox SET status = ?, attempts = ?, last_error = ? WHERE id = ?`
	_, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query, entity.OutboxStatusFailed, attempts, lastError, id)
	if err != nil {
		r.logger.Error("Failed to mark outbox message failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark outbox message failed: %w", err)
	}
	return nil
}
