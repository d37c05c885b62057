package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Actor is the authenticated identity performing a workflow action
type Actor struct {
	ID   int64
	Role workflow.Role
}

// System is the actor used for system-initiated actions (public submissions)
var System = Actor{ID: 0, Role: workflow.RoleApplicant}

// Config holds the engine's injected policy values
type Config struct {
	// MinRegistrationFee and MaxRegistrationFee bound the fee a reviewer may
	// request. A zero max disables the upper bound.
	MinRegistrationFee decimal.Decimal
	MaxRegistrationFee decimal.Decimal

	// Labels maps statuses to applicant-facing display names
	Labels map[workflow.Status]workflow.Label
}

// SubmitInput carries a new application's validated fields
type SubmitInput struct {
	ProgramID       int64
	ProgramCode     string // alternative to ProgramID, resolved against the catalog
	FullName        string
	FullNameAr      string
	Email           string
	Phone           string
	NationalID      string
	DateOfBirth     time.Time
	Gender          string
	Nationality     string
	Country         string
	City            string
	Address         string
	HighSchoolName  string
	HighSchoolScore *float64
	HighSchoolYear  *int
	Documents       string
	Notes           string
	Source          string
	Metadata        string
}

// RecordPaymentInput carries one fee payment from the finance desk
type RecordPaymentInput struct {
	Amount        decimal.Decimal
	Method        string
	BankName      string
	ReceiptNumber string
	ReceiptPath   string
	Notes         string
}

// AdmissionService is the workflow engine: the only mutation surface for
// admission applications. Every action runs as one atomic unit of work —
// guard, effect, status change and exactly one audit log entry commit
// together or not at all.
type AdmissionService struct {
	apps        port.ApplicationRepository
	logs        port.WorkflowLogRepository
	payments    port.PaymentRepository
	outbox      port.OutboxRepository
	notices     port.NotificationRepository
	programs    port.ProgramRepository
	provisioner port.IdentityProvisioner
	txManager   port.TransactionManager
	machine     *workflow.Machine
	cfg         Config
	logger      Logger
}

// NewAdmissionService creates the workflow engine
func NewAdmissionService(
	apps port.ApplicationRepository,
	logs port.WorkflowLogRepository,
	payments port.PaymentRepository,
	outbox port.OutboxRepository,
	notices port.NotificationRepository,
	programs port.ProgramRepository,
	provisioner port.IdentityProvisioner,
	txManager port.TransactionManager,
	cfg Config,
	logger Logger,
) *AdmissionService {
	if cfg.Labels == nil {
		cfg.Labels = workflow.DefaultStatusLabels()
	}
	return &AdmissionService{
		apps:        apps,
		logs:        logs,
		payments:    payments,
		outbox:      outbox,
		notices:     notices,
		programs:    programs,
		provisioner: provisioner,
		txManager:   txManager,
		machine:     workflow.NewMachine(),
		cfg:         cfg,
		logger:      logger,
	}
}

// Machine exposes the transition table for read-only use (allowed actions in responses)
func (s *AdmissionService) Machine() *workflow.Machine {
	return s.machine
}

// StatusLabel returns the applicant-facing label for a status
func (s *AdmissionService) StatusLabel(status workflow.Status) workflow.Label {
	if l, ok := s.cfg.Labels[status]; ok {
		return l
	}
	return workflow.Label{EN: status.String(), AR: status.String()}
}

// Submit creates a new application in PENDING and fires the submission
// notifications. Duplicate national ids are rejected before anything persists.
func (s *AdmissionService) Submit(ctx context.Context, in SubmitInput, actor Actor) (*entity.Application, error) {
	if err := s.checkCapability(workflow.ActionSubmit, actor); err != nil {
		return nil, err
	}

	program, err := s.resolveProgram(ctx, in.ProgramID, in.ProgramCode)
	if err != nil {
		return nil, err
	}

	app := &entity.Application{
		ProgramID:       program.ID,
		FullName:        in.FullName,
		FullNameAr:      in.FullNameAr,
		Email:           in.Email,
		Phone:           in.Phone,
		NationalID:      in.NationalID,
		DateOfBirth:     in.DateOfBirth,
		Gender:          in.Gender,
		Nationality:     in.Nationality,
		Country:         in.Country,
		City:            in.City,
		Address:         in.Address,
		HighSchoolName:  in.HighSchoolName,
		HighSchoolScore: in.HighSchoolScore,
		HighSchoolYear:  in.HighSchoolYear,
		Documents:       in.Documents,
		Notes:           in.Notes,
		Source:          in.Source,
		Metadata:        in.Metadata,
		Status:          workflow.StatusPending,
		SubmittedAt:     time.Now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.apps.GetByNationalID(txCtx, in.NationalID)
		if err != nil {
			return err
		}
		if existing != nil {
			return &workflow.ValidationError{Field: "national_id", Reason: "an application with this national id already exists"}
		}

		if err := s.apps.Create(txCtx, app); err != nil {
			return fmt.Errorf("create application: %w", err)
		}

		if err := s.appendLog(txCtx, app.ID, entity.LogApplicationSubmitted, nil, workflow.StatusPending,
			actorRef(actor), "Application submitted", ""); err != nil {
			return err
		}

		if err := s.queueEmail(txCtx, app, entity.TemplateApplicationSubmitted, nil); err != nil {
			return err
		}

		return s.notifyStaff(txCtx, workflow.RoleAdmissions, "New admission application",
			fmt.Sprintf("New admission application from %s (%s)", app.FullName, app.Reference()), app.ID)
	})
	if err != nil {
		s.logger.Error("Failed to submit application", "error", err, "national_id", in.NationalID)
		return nil, err
	}

	s.logger.Info("Application submitted", "application_id", app.ID, "reference", app.Reference())
	return app, nil
}

// StartReview moves a pending application into review and records the
// reviewer. Firing it again from UNDER_REVIEW reassigns the reviewer.
func (s *AdmissionService) StartReview(ctx context.Context, id int64, actor Actor) (*entity.Application, error) {
	var app *entity.Application
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.loadForAction(txCtx, id, workflow.ActionStartReview, actor)
		if err != nil {
			return err
		}

		from := app.Status
		app.Status = workflow.StatusUnderReview
		app.ReviewedBy = &actor.ID

		if err := s.apps.Update(txCtx, app); err != nil {
			return err
		}
		if err := s.appendLog(txCtx, app.ID, entity.LogUnderReview, &from, app.Status,
			&actor.ID, "Application review started", ""); err != nil {
			return err
		}
		return s.queueEmail(txCtx, app, entity.TemplateApplicationUnderReview, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Review started", "application_id", id, "reviewer", actor.ID)
	return app, nil
}

// VerifyDocuments records the reviewer's verification note and advances the application
func (s *AdmissionService) VerifyDocuments(ctx context.Context, id int64, notes string, actor Actor) (*entity.Application, error) {
	var app *entity.Application
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.loadForAction(txCtx, id, workflow.ActionVerifyDocuments, actor)
		if err != nil {
			return err
		}

		from := app.Status
		now := time.Now()
		app.Status = workflow.StatusDocumentsVerified
		app.DocumentsVerifiedAt = &now
		if notes != "" {
			app.ReviewerNotes = notes
		}

		if err := s.apps.Update(txCtx, app); err != nil {
			return err
		}
		logNote := notes
		if logNote == "" {
			logNote = "All documents verified"
		}
		if err := s.appendLog(txCtx, app.ID, entity.LogDocumentsVerified, &from, app.Status,
			&actor.ID, logNote, ""); err != nil {
			return err
		}
		return s.queueEmail(txCtx, app, entity.TemplateDocumentsVerified, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Documents verified", "application_id", id, "reviewer", actor.ID)
	return app, nil
}

// RequestPayment sets the registration fee and hands the application over to
// the finance desk. The fee is set exactly once, on this transition.
func (s *AdmissionService) RequestPayment(ctx context.Context, id int64, fee decimal.Decimal, actor Actor) (*entity.Application, error) {
	if err := s.validateFee(fee); err != nil {
		return nil, err
	}

	var app *entity.Application
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.loadForAction(txCtx, id, workflow.ActionRequestPayment, actor)
		if err != nil {
			return err
		}

		from := app.Status
		now := time.Now()
		app.Status = workflow.StatusPendingPayment
		app.RegistrationFee = decimal.NullDecimal{Decimal: fee, Valid: true}
		app.PaymentRequestedAt = &now

		if err := s.apps.Update(txCtx, app); err != nil {
			return err
		}
		if err := s.appendLog(txCtx, app.ID, entity.LogPaymentRequested, &from, app.Status,
			&actor.ID, fmt.Sprintf("Registration fee requested: %s", fee.StringFixed(2)), ""); err != nil {
			return err
		}
		if err := s.queueEmail(txCtx, app, entity.TemplatePaymentRequested, map[string]any{
			"registration_fee": fee.StringFixed(2),
		}); err != nil {
			return err
		}
		return s.notifyStaff(txCtx, workflow.RoleFinance, "Registration fee requested",
			fmt.Sprintf("Registration fee of %s requested for %s (%s)", fee.StringFixed(2), app.FullName, app.Reference()), app.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment requested", "application_id", id, "fee", fee.StringFixed(2))
	return app, nil
}

// RecordPayment creates a payment record and, once the sum of completed
// payments covers the registration fee, advances the application to
// PAYMENT_RECEIVED. Partial payments are recorded without a status change.
func (s *AdmissionService) RecordPayment(ctx context.Context, id int64, in RecordPaymentInput, actor Actor) (*entity.Payment, *entity.Application, error) {
	if !in.Amount.IsPositive() {
		return nil, nil, &workflow.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if !entity.IsValidPaymentMethod(in.Method) {
		return nil, nil, &workflow.ValidationError{Field: "payment_method", Reason: "unknown payment method"}
	}

	var (
		app     *entity.Application
		payment *entity.Payment
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.loadForAction(txCtx, id, workflow.ActionRecordPayment, actor)
		if err != nil {
			return err
		}

		now := time.Now()
		payment = &entity.Payment{
			ApplicationID: app.ID,
			TransactionID: entity.GenerateTransactionID(),
			Amount:        in.Amount,
			Method:        in.Method,
			Status:        entity.PaymentStatusCompleted,
			BankName:      in.BankName,
			ReceiptNumber: in.ReceiptNumber,
			ReceiptPath:   in.ReceiptPath,
			Notes:         in.Notes,
			PaidAt:        now,
			VerifiedBy:    &actor.ID,
			VerifiedAt:    &now,
		}
		if err := s.payments.Create(txCtx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		paid, err := s.payments.SumCompleted(txCtx, app.ID)
		if err != nil {
			return err
		}

		from := app.Status
		meta, _ := json.Marshal(map[string]any{
			"payment_id":     payment.ID,
			"transaction_id": payment.TransactionID,
			"paid_total":     paid.StringFixed(2),
		})

		if paid.GreaterThanOrEqual(app.RegistrationFee.Decimal) {
			app.Status = workflow.StatusPaymentReceived
			app.PaymentReceivedAt = &now
			if err := s.apps.Update(txCtx, app); err != nil {
				return err
			}
			if err := s.appendLog(txCtx, app.ID, entity.LogPaymentReceived, &from, app.Status,
				&actor.ID, fmt.Sprintf("Registration fee received: %s", in.Amount.StringFixed(2)), string(meta)); err != nil {
				return err
			}
			if err := s.queueEmail(txCtx, app, entity.TemplatePaymentReceived, map[string]any{
				"amount":         in.Amount.StringFixed(2),
				"transaction_id": payment.TransactionID,
			}); err != nil {
				return err
			}
			return s.notifyStaff(txCtx, workflow.RoleAdmissions, "Registration fee paid",
				fmt.Sprintf("Registration fee paid for %s (%s) — ready for final approval", app.FullName, app.Reference()), app.ID)
		}

		// Partial payment: record and log, but stay in PENDING_PAYMENT.
		outstanding := app.RegistrationFee.Decimal.Sub(paid)
		return s.appendLog(txCtx, app.ID, entity.LogPaymentRecorded, &from, app.Status,
			&actor.ID, fmt.Sprintf("Partial payment recorded: %s (outstanding: %s)",
				in.Amount.StringFixed(2), outstanding.StringFixed(2)), string(meta))
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Payment recorded",
		"application_id", id,
		"amount", in.Amount.StringFixed(2),
		"status", app.Status.String())
	return payment, app, nil
}

// Approve performs the final approval: it provisions the student identity
// inside the same transaction as the status flip, so an APPROVED application
// without a student (or the reverse) cannot exist. If the application is
// already provisioned the call is an idempotent no-op returning the existing
// result, never a second account.
func (s *AdmissionService) Approve(ctx context.Context, id int64, actor Actor) (*entity.Application, *entity.Provisioned, error) {
	if err := s.checkCapability(workflow.ActionApprove, actor); err != nil {
		return nil, nil, err
	}

	var (
		app  *entity.Application
		prov *entity.Provisioned
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.load(txCtx, id)
		if err != nil {
			return err
		}

		// Retried approval: the account exists, return it unchanged.
		if app.Status == workflow.StatusApproved && app.IsProvisioned() {
			s.logger.Info("Approve retried on provisioned application", "application_id", id, "student_id", *app.StudentID)
			return nil
		}

		if err := s.machine.Check(app.Status, workflow.ActionApprove, actor.Role); err != nil {
			return err
		}

		prov, err = s.provisioner.CreateStudentAccount(txCtx, app)
		if err != nil {
			return &workflow.ProvisioningError{Stage: "student account", Err: err}
		}

		from := app.Status
		now := time.Now()
		app.Status = workflow.StatusApproved
		app.StudentID = &prov.Student.StudentNumber
		app.ApprovedBy = &actor.ID
		app.ApprovedAt = &now

		if err := s.apps.Update(txCtx, app); err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]any{
			"student_number":   prov.Student.StudentNumber,
			"student_row_id":   prov.Student.ID,
			"user_id":          prov.User.ID,
			"university_email": prov.Student.UniversityEmail,
		})
		if err := s.appendLog(txCtx, app.ID, entity.LogApplicationApproved, &from, app.Status,
			&actor.ID, fmt.Sprintf("Application approved — student number %s", prov.Student.StudentNumber), string(meta)); err != nil {
			return err
		}

		// Acceptance documents are generated after commit by the dispatcher.
		if err := s.queueDocuments(txCtx, app); err != nil {
			return err
		}
		return s.queueEmail(txCtx, app, entity.TemplateApplicationApproved, map[string]any{
			"student_number":   prov.Student.StudentNumber,
			"university_email": prov.Student.UniversityEmail,
			"credential":       prov.Credential,
		})
	})
	if err != nil {
		s.logger.Error("Failed to approve application", "error", err, "application_id", id)
		return nil, nil, err
	}

	s.logger.Info("Application approved", "application_id", id, "student_id", *app.StudentID)
	return app, prov, nil
}

// Reject closes the application with a mandatory reason
func (s *AdmissionService) Reject(ctx context.Context, id int64, reason string, actor Actor) (*entity.Application, error) {
	if reason == "" {
		return nil, &workflow.ValidationError{Field: "reason", Reason: "a rejection reason is required"}
	}

	var app *entity.Application
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.loadForAction(txCtx, id, workflow.ActionReject, actor)
		if err != nil {
			return err
		}

		from := app.Status
		app.Status = workflow.StatusRejected
		app.ReviewerNotes = reason

		if err := s.apps.Update(txCtx, app); err != nil {
			return err
		}
		if err := s.appendLog(txCtx, app.ID, entity.LogApplicationRejected, &from, app.Status,
			&actor.ID, reason, ""); err != nil {
			return err
		}
		return s.queueEmail(txCtx, app, entity.TemplateApplicationRejected, map[string]any{
			"reason": reason,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Application rejected", "application_id", id, "reviewer", actor.ID)
	return app, nil
}

// Waitlist parks the application with an optional reason
func (s *AdmissionService) Waitlist(ctx context.Context, id int64, reason string, actor Actor) (*entity.Application, error) {
	var app *entity.Application
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.loadForAction(txCtx, id, workflow.ActionWaitlist, actor)
		if err != nil {
			return err
		}

		from := app.Status
		app.Status = workflow.StatusWaitlisted
		if reason != "" {
			app.ReviewerNotes = reason
		}

		if err := s.apps.Update(txCtx, app); err != nil {
			return err
		}
		logNote := reason
		if logNote == "" {
			logNote = "Application waitlisted"
		}
		return s.appendLog(txCtx, app.ID, entity.LogApplicationWaitlisted, &from, app.Status,
			&actor.ID, logNote, "")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Application waitlisted", "application_id", id, "reviewer", actor.ID)
	return app, nil
}

// Reopen re-admits a waitlisted application into review as a fresh review start
func (s *AdmissionService) Reopen(ctx context.Context, id int64, actor Actor) (*entity.Application, error) {
	var app *entity.Application
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.loadForAction(txCtx, id, workflow.ActionReopen, actor)
		if err != nil {
			return err
		}

		from := app.Status
		app.Status = workflow.StatusUnderReview
		app.ReviewedBy = &actor.ID
		app.ReviewerNotes = ""

		if err := s.apps.Update(txCtx, app); err != nil {
			return err
		}
		return s.appendLog(txCtx, app.ID, entity.LogApplicationReopened, &from, app.Status,
			&actor.ID, "Application reopened for review", "")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Application reopened", "application_id", id, "reviewer", actor.ID)
	return app, nil
}

// Get retrieves an application by id
func (s *AdmissionService) Get(ctx context.Context, id int64) (*entity.Application, error) {
	return s.load(ctx, id)
}

// GetByLookup retrieves an application by reference number, email, or national id
func (s *AdmissionService) GetByLookup(ctx context.Context, key string) (*entity.Application, error) {
	if id := entity.ParseReference(key); id > 0 {
		if app, err := s.apps.GetByID(ctx, id); err != nil {
			return nil, err
		} else if app != nil {
			return app, nil
		}
	}
	app, err := s.apps.GetByEmailOrNationalID(ctx, key)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("lookup %q: %w", key, workflow.ErrNotFound)
	}
	return app, nil
}

// List retrieves applications with filters and pagination, plus the total count
func (s *AdmissionService) List(ctx context.Context, filter port.ApplicationFilter) ([]*entity.Application, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 15
	}
	return s.apps.List(ctx, filter)
}

// WorkflowLogs returns the application's ordered audit trail
func (s *AdmissionService) WorkflowLogs(ctx context.Context, id int64) ([]*entity.WorkflowLog, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return s.logs.ListByApplication(ctx, id)
}

// Delete soft-deletes an application. Records referenced by payments or a
// provisioned student are retained for audit; only the listing hides them.
func (s *AdmissionService) Delete(ctx context.Context, id int64, actor Actor) error {
	if actor.Role != workflow.RoleRegistrar {
		return &workflow.ForbiddenError{Role: actor.Role, Action: workflow.Action("DELETE")}
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.apps.SoftDelete(ctx, id, time.Now())
}

// Payments returns the fee payments recorded for an application
func (s *AdmissionService) Payments(ctx context.Context, id int64) ([]*entity.Payment, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return s.payments.ListByApplication(ctx, id)
}

// Programs returns the active admission targets for the public webhook
func (s *AdmissionService) Programs(ctx context.Context) ([]*entity.Program, error) {
	return s.programs.ListActive(ctx)
}

// --- helpers ---

func (s *AdmissionService) load(ctx context.Context, id int64) (*entity.Application, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("application %d: %w", id, workflow.ErrNotFound)
	}
	return app, nil
}

// loadForAction reloads the application inside the current transaction and
// re-checks its persisted status, so a racer that committed first makes this
// request fail with a TransitionError instead of overwriting the result.
func (s *AdmissionService) loadForAction(ctx context.Context, id int64, action workflow.Action, actor Actor) (*entity.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Check(app.Status, action, actor.Role); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *AdmissionService) checkCapability(action workflow.Action, actor Actor) error {
	if !actor.Role.IsValid() {
		return &workflow.ValidationError{Field: "role", Reason: "unknown actor role"}
	}
	if !actor.Role.Can(action) {
		return &workflow.ForbiddenError{Role: actor.Role, Action: action}
	}
	return nil
}

func (s *AdmissionService) resolveProgram(ctx context.Context, id int64, code string) (*entity.Program, error) {
	var (
		program *entity.Program
		err     error
	)
	switch {
	case id > 0:
		program, err = s.programs.GetByID(ctx, id)
	case code != "":
		program, err = s.programs.GetByCode(ctx, code)
	default:
		return nil, &workflow.ValidationError{Field: "program_id", Reason: "required"}
	}
	if err != nil {
		return nil, err
	}
	if program == nil || !program.IsActive {
		return nil, &workflow.ValidationError{Field: "program_id", Reason: "program not found or inactive"}
	}
	return program, nil
}

func (s *AdmissionService) validateFee(fee decimal.Decimal) error {
	if !fee.IsPositive() {
		return &workflow.ValidationError{Field: "registration_fee", Reason: "must be positive"}
	}
	if fee.LessThan(s.cfg.MinRegistrationFee) {
		return &workflow.ValidationError{Field: "registration_fee",
			Reason: fmt.Sprintf("below the minimum of %s", s.cfg.MinRegistrationFee.StringFixed(2))}
	}
	if s.cfg.MaxRegistrationFee.IsPositive() && fee.GreaterThan(s.cfg.MaxRegistrationFee) {
		return &workflow.ValidationError{Field: "registration_fee",
			Reason: fmt.Sprintf("above the maximum of %s", s.cfg.MaxRegistrationFee.StringFixed(2))}
	}
	return nil
}

func (s *AdmissionService) appendLog(ctx context.Context, appID int64, action string,
	from *workflow.Status, to workflow.Status, performedBy *int64, notes, metadata string) error {
	log := &entity.WorkflowLog{
		ApplicationID: appID,
		Action:        action,
		FromStatus:    from,
		ToStatus:      to,
		PerformedBy:   performedBy,
		Notes:         notes,
		Metadata:      metadata,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return fmt.Errorf("append workflow log: %w", err)
	}
	return nil
}

func (s *AdmissionService) queueEmail(ctx context.Context, app *entity.Application, template string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	data["reference"] = app.Reference()
	data["full_name"] = app.FullName
	data["status"] = app.Status.String()
	data["status_label"] = s.StatusLabel(app.Status).EN

	payload, err := json.Marshal(entity.EmailPayload{
		Recipient: app.Email,
		Template:  template,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}
	return s.outbox.Create(ctx, &entity.OutboxMessage{
		ApplicationID: app.ID,
		Kind:          entity.OutboxKindEmail,
		Payload:       string(payload),
		Status:        entity.OutboxStatusPending,
		NextAttemptAt: time.Now(),
	})
}

func (s *AdmissionService) queueDocuments(ctx context.Context, app *entity.Application) error {
	return s.outbox.Create(ctx, &entity.OutboxMessage{
		ApplicationID: app.ID,
		Kind:          entity.OutboxKindDocuments,
		Payload:       "{}",
		Status:        entity.OutboxStatusPending,
		NextAttemptAt: time.Now(),
	})
}

func (s *AdmissionService) notifyStaff(ctx context.Context, role workflow.Role, title, message string, appID int64) error {
	return s.notices.Create(ctx, &entity.Notification{
		RecipientRole: role.String(),
		Title:         title,
		Message:       message,
		Link:          fmt.Sprintf("/admission-applications/%d", appID),
	})
}

func actorRef(actor Actor) *int64 {
	if actor.ID == 0 {
		return nil
	}
	id := actor.ID
	return &id
}
