package entity

import "time"

// Outbox message kinds
const (
	OutboxKindEmail     = "EMAIL"
	OutboxKindDocuments = "DOCUMENTS"
)

// Outbox message statuses
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// Email templates referenced by outbox payloads
const (
	TemplateApplicationSubmitted   = "application_submitted"
	TemplateApplicationUnderReview = "application_under_review"
	TemplateDocumentsVerified      = "documents_verified"
	TemplatePaymentRequested       = "payment_requested"
	TemplatePaymentReceived        = "payment_received"
	TemplateApplicationApproved    = "application_approved"
	TemplateApplicationRejected    = "application_rejected"
)

// OutboxMessage is a durable side-effect intent appended within the same
// transaction as the status change that caused it. The dispatcher executes
// messages at least once, after commit, with its own retry policy.
type OutboxMessage struct {
	ID            int64      `json:"id"`
	ApplicationID int64      `json:"application_id"`
	Kind          string     `json:"kind"`
	Payload       string     `json:"payload"` // JSON
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
}

// EmailPayload is the payload of an EMAIL outbox message
type EmailPayload struct {
	Recipient string         `json:"recipient"`
	Template  string         `json:"template"`
	Data      map[string]any `json:"data,omitempty"`
}

// Notification is an in-app notice for a staff department, created in the
// same transaction as the transition it announces
type Notification struct {
	ID            int64     `json:"id"`
	RecipientRole string    `json:"recipient_role"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Link          string    `json:"link,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}
