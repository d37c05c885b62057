package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

// ApplicationFilter narrows List queries
type ApplicationFilter struct {
	Status         workflow.Status
	ProgramID      int64
	AwaitingAction bool
	Limit          int
	Offset         int
}

// ApplicationRepository defines persistence operations for Application.
// GetByID returns (nil, nil) when the application does not exist.
type ApplicationRepository interface {
	Create(ctx context.Context, app *entity.Application) error
	GetByID(ctx context.Context, id int64) (*entity.Application, error)
	GetByNationalID(ctx context.Context, nationalID string) (*entity.Application, error)
	GetByEmailOrNationalID(ctx context.Context, key string) (*entity.Application, error)
	Update(ctx context.Context, app *entity.Application) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, filter ApplicationFilter) ([]*entity.Application, int, error)
	CountByStatus(ctx context.Context) (map[workflow.Status]int, error)
}

// WorkflowLogRepository defines persistence operations for the append-only audit trail
type WorkflowLogRepository interface {
	Create(ctx context.Context, log *entity.WorkflowLog) error
	ListByApplication(ctx context.Context, applicationID int64) ([]*entity.WorkflowLog, error)

	// AverageStageSeconds returns, per status, the mean time applications
	// spent in it, derived from consecutive log entries.
	AverageStageSeconds(ctx context.Context) (map[workflow.Status]float64, error)

	// AverageDecisionDays returns the mean days from submission to a
	// terminal status.
	AverageDecisionDays(ctx context.Context) (float64, error)
}

// PaymentRepository defines persistence operations for registration fee payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	ListByApplication(ctx context.Context, applicationID int64) ([]*entity.Payment, error)
	SumCompleted(ctx context.Context, applicationID int64) (decimal.Decimal, error)
}

// OutboxRepository defines persistence operations for side-effect intents
type OutboxRepository interface {
	Create(ctx context.Context, msg *entity.OutboxMessage) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]*entity.OutboxMessage, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkRetry(ctx context.Context, id int64, attempts int, nextAttempt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id int64, attempts int, lastError string) error
}

// NotificationRepository defines persistence operations for in-app staff notices
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByRole(ctx context.Context, role string, unreadOnly bool, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// ProgramRepository reads the academic catalog owned by the surrounding system
type ProgramRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Program, error)
	GetByCode(ctx context.Context, code string) (*entity.Program, error)
	ListActive(ctx context.Context) ([]*entity.Program, error)
}

// StudentRepository defines persistence operations for provisioned identities
type StudentRepository interface {
	CreateUser(ctx context.Context, user *entity.UserAccount) error
	CreateStudent(ctx context.Context, student *entity.Student) error
	StudentNumberExists(ctx context.Context, number string) (bool, error)
	LastStudentNumber(ctx context.Context, prefix string) (string, error)
	GetByStudentNumber(ctx context.Context, number string) (*entity.Student, error)
}

// TransactionManager runs a function inside a single database transaction.
// The transaction is carried on the context; repositories pick it up
// transparently. Lock contention surfaces as workflow.ErrConflict.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
