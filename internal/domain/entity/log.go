package entity

import (
	"time"

	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

// Log action names recorded in the workflow audit trail, one per transition
const (
	LogApplicationSubmitted  = "APPLICATION_SUBMITTED"
	LogUnderReview           = "UNDER_REVIEW"
	LogDocumentsVerified     = "DOCUMENTS_VERIFIED"
	LogPaymentRequested      = "PAYMENT_REQUESTED"
	LogPaymentRecorded       = "PAYMENT_RECORDED" // partial payment, status unchanged
	LogPaymentReceived       = "PAYMENT_RECEIVED"
	LogApplicationApproved   = "APPLICATION_APPROVED"
	LogApplicationRejected   = "APPLICATION_REJECTED"
	LogApplicationWaitlisted = "APPLICATION_WAITLISTED"
	LogApplicationReopened   = "APPLICATION_REOPENED"
)

// WorkflowLog is one append-only audit entry for an application. Entries are
// never updated or deleted; ordered by creation they form the application's
// complete history, a valid walk of the transition table.
type WorkflowLog struct {
	ID            int64            `json:"id"`
	ApplicationID int64            `json:"application_id"`
	Action        string           `json:"action"`
	FromStatus    *workflow.Status `json:"from_status,omitempty"` // nil on submission
	ToStatus      workflow.Status  `json:"to_status"`
	PerformedBy   *int64           `json:"performed_by,omitempty"` // nil for system-initiated entries
	Notes         string           `json:"notes,omitempty"`
	Metadata      string           `json:"metadata,omitempty"` // JSON
	CreatedAt     time.Time        `json:"created_at"`
}
