package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

// Application represents an applicant's admission request and its process state.
// It is mutated exclusively through engine transitions and soft-deleted only,
// so payments and provisioned students always keep a valid reference.
type Application struct {
	ID        int64 `json:"id"`
	ProgramID int64 `json:"program_id"`

	// Applicant data
	FullName        string     `json:"full_name"`
	FullNameAr      string     `json:"full_name_ar,omitempty"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	NationalID      string     `json:"national_id"`
	DateOfBirth     time.Time  `json:"date_of_birth"`
	Gender          string     `json:"gender"`
	Nationality     string     `json:"nationality"`
	Country         string     `json:"country,omitempty"`
	City            string     `json:"city,omitempty"`
	Address         string     `json:"address,omitempty"`
	HighSchoolName  string     `json:"high_school_name,omitempty"`
	HighSchoolScore *float64   `json:"high_school_score,omitempty"`
	HighSchoolYear  *int       `json:"high_school_year,omitempty"`
	Documents       string     `json:"documents,omitempty"` // JSON array of uploaded document refs
	Notes           string     `json:"notes,omitempty"`
	Source          string     `json:"source,omitempty"`
	Metadata        string     `json:"metadata,omitempty"` // JSON, e.g. utm fields from the webhook

	// Process fields, owned by the workflow engine
	Status              workflow.Status     `json:"status"`
	ReviewerNotes       string              `json:"reviewer_notes,omitempty"`
	RegistrationFee     decimal.NullDecimal `json:"registration_fee,omitempty"`
	ReviewedBy          *int64              `json:"reviewed_by,omitempty"`
	ApprovedBy          *int64              `json:"approved_by,omitempty"`
	StudentID           *string             `json:"student_id,omitempty"`
	DocumentsVerifiedAt *time.Time          `json:"documents_verified_at,omitempty"`
	PaymentRequestedAt  *time.Time          `json:"payment_requested_at,omitempty"`
	PaymentReceivedAt   *time.Time          `json:"payment_received_at,omitempty"`
	ApprovedAt          *time.Time          `json:"approved_at,omitempty"`
	AcceptanceLetterPath string             `json:"acceptance_letter_path,omitempty"`
	UniversityCardPath   string             `json:"university_card_path,omitempty"`

	SubmittedAt time.Time  `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Reference returns the human-readable reference number derived from the id
func (a *Application) Reference() string {
	return FormatReference(a.ID)
}

// FormatReference derives the reference number for an application id
func FormatReference(id int64) string {
	return fmt.Sprintf("APP-%06d", id)
}

// ParseReference extracts the application id from a reference number.
// Returns 0 when the string is not a reference.
func ParseReference(ref string) int64 {
	var id int64
	if _, err := fmt.Sscanf(ref, "APP-%d", &id); err != nil {
		return 0
	}
	return id
}

// IsProvisioned returns true once a student identity has been linked
func (a *Application) IsProvisioned() bool {
	return a.StudentID != nil && *a.StudentID != ""
}

// FeeRequested returns true once a registration fee has been set
func (a *Application) FeeRequested() bool {
	return a.RegistrationFee.Valid
}
