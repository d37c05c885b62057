package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/persistence/sqlite"
)

// WorkflowLogRepository implements port.WorkflowLogRepository on SQLite.
// The table is append-only: no update or delete statements exist here.
type WorkflowLogRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewWorkflowLogRepository creates a new workflow log repository
func NewWorkflowLogRepository(db *sqlite.DB, logger *zap.Logger) port.WorkflowLogRepository {
	return &WorkflowLogRepository{db: db, logger: logger}
}

// Create appends an audit entry
func (r *WorkflowLogRepository) Create(ctx context.Context, log *entity.WorkflowLog) error {
	query := `
		INSERT INTO admission_workflow_logs (
			application_id, action, from_status, to_status, performed_by, notes, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var from *string
	if log.FromStatus != nil {
		s := log.FromStatus.String()
		from = &s
	}

	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		log.ApplicationID,
		log.Action,
		from,
		log.ToStatus.String(),
		log.PerformedBy,
		log.Notes,
		log.Metadata,
	)
	if err != nil {
		r.logger.Error("Failed to create workflow log", zap.Int64("application_id", log.ApplicationID), zap.Error(err))
		return fmt.Errorf("failed to create workflow log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// ListByApplication returns the full history of an application in insertion order
func (r *WorkflowLogRepository) ListByApplication(ctx context.Context, applicationID int64) ([]*entity.WorkflowLog, error) {
	query := `
		SELECT id, application_id, action, from_status, to_status, performed_by, notes, metadata, created_at
		FROM admission_workflow_logs
		WHERE application_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query, applicationID)
	if err != nil {
		r.logger.Error("Failed to list workflow logs", zap.Int64("application_id", applicationID), zap.Error(err))
		return nil, fmt.Errorf("failed to list workflow logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.WorkflowLog
	for rows.Next() {
		var (
			log         entity.WorkflowLog
			from        sql.NullString
			to          string
			performedBy sql.NullInt64
			notes       sql.NullString
			metadata    sql.NullString
		)
		if err := rows.Scan(&log.ID, &log.ApplicationID, &log.Action, &from, &to,
			&performedBy, &notes, &metadata, &log.CreatedAt); err != nil {
			return nil, err
		}
		if from.Valid {
			s := workflow.Status(from.String)
			log.FromStatus = &s
		}
		log.ToStatus = workflow.Status(to)
		if performedBy.Valid {
			log.PerformedBy = &performedBy.Int64
		}
		log.Notes = notes.String
		log.Metadata = metadata.String
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}

// AverageStageSeconds computes, per status, the mean dwell time between the
// entry that put an application into a status and the next entry that moved
// it out. Statuses still occupied contribute nothing until they are left.
func (r *WorkflowLogRepository) AverageStageSeconds(ctx context.Context) (map[workflow.Status]float64, error) {
	query := `
		WITH ordered AS (
			SELECT
				application_id,
				to_status,
				created_at,
				LEAD(created_at) OVER (PARTITION BY application_id ORDER BY id) AS left_at
			FROM admission_workflow_logs
			WHERE to_status != from_status OR from_status IS NULL
		)
		SELECT to_status, AVG((julianday(left_at) - julianday(created_at)) * 86400.0)
		FROM ordered
		WHERE left_at IS NOT NULL
		GROUP BY to_status
	`

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to compute stage durations", zap.Error(err))
		return nil, fmt.Errorf("failed to compute stage durations: %w", err)
	}
	defer rows.Close()

	averages := make(map[workflow.Status]float64)
	for rows.Next() {
		var (
			status  string
			seconds float64
		)
		if err := rows.Scan(&status, &seconds); err != nil {
			return nil, err
		}
		averages[workflow.Status(status)] = seconds
	}
	return averages, rows.Err()
}

// AverageDecisionDays computes the mean days between submission and reaching
// a terminal status, over decided applications only
func (r *WorkflowLogRepository) AverageDecisionDays(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(AVG(julianday(l.created_at) - julianday(a.submitted_at)), 0)
		FROM admission_workflow_logs l
		JOIN admission_applications a ON a.id = l.application_id
		WHERE l.to_status IN (?, ?)
	`

	var days float64
	err := r.db.ExecutorFrom(ctx).QueryRowContext(ctx, query,
		workflow.StatusApproved.String(), workflow.StatusRejected.String()).Scan(&days)
	if err != nil {
		r.logger.Error("Failed to compute decision time", zap.Error(err))
		return 0, fmt.Errorf("failed to compute decision time: %w", err)
	}
	return days, nil
}
