package port

import (
	"context"

	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
)

// IdentityProvisioner creates the student and user account for an approved
// application. It must be idempotent for a given application: retrying after a
// partial failure may not create a second account. It runs inside the approval
// transaction, so a failure rolls the whole approval back.
type IdentityProvisioner interface {
	CreateStudentAccount(ctx context.Context, app *entity.Application) (*entity.Provisioned, error)
}

// Notifier delivers a templated message to a recipient. Implementations are
// invoked by the outbox dispatcher after commit; they must not assume any
// open transaction.
type Notifier interface {
	Notify(ctx context.Context, recipient, template string, data map[string]any) error
}

// DocumentGenerator produces acceptance documents for an approved application
// and returns the stored file paths.
type DocumentGenerator interface {
	GenerateAcceptanceLetter(ctx context.Context, app *entity.Application) (string, error)
	GenerateUniversityCard(ctx context.Context, app *entity.Application) (string, error)
}
