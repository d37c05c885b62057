package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository on SQLite
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Create stores an in-app staff notice
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (recipient_role, title, message, link, read)
		VALUES (?, ?, ?, ?, 0)
	`

	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query, n.RecipientRole, n.Title, n.Message, n.Link)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.String("role", n.RecipientRole), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// ListByRole returns notices for a staff department, newest first
func (r *NotificationRepository) ListByRole(ctx context.Context, role string, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, recipient_role, title, message, link, read, created_at
		FROM notifications
		WHERE recipient_role = ?
	`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY id DESC LIMIT ?`

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, role, limit)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("role", role), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notices []*entity.Notification
	for rows.Next() {
		var (
			n    entity.Notification
			link sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.RecipientRole, &n.Title, &n.Message, &link, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Link = link.String
		notices = append(notices, &n)
	}
	return notices, rows.Err()
}

// MarkRead marks a notice as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET read = 1 WHERE id = ?`
	_, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
