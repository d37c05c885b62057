package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

// --- in-memory fakes ---

type memApps struct {
	byID   map[int64]*entity.Application
	nextID int64
}

func newMemApps() *memApps {
	return &memApps{byID: make(map[int64]*entity.Application), nextID: 1}
}

func (m *memApps) Create(_ context.Context, app *entity.Application) error {
	app.ID = m.nextID
	m.nextID++
	cp := *app
	m.byID[app.ID] = &cp
	return nil
}

func (m *memApps) GetByID(_ context.Context, id int64) (*entity.Application, error) {
	app, ok := m.byID[id]
	if !ok || app.DeletedAt != nil {
		return nil, nil
	}
	cp := *app
	return &cp, nil
}

func (m *memApps) GetByNationalID(_ context.Context, nationalID string) (*entity.Application, error) {
	for _, app := range m.byID {
		if app.NationalID == nationalID && app.DeletedAt == nil {
			cp := *app
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memApps) GetByEmailOrNationalID(_ context.Context, key string) (*entity.Application, error) {
	for _, app := range m.byID {
		if (app.Email == key || app.NationalID == key) && app.DeletedAt == nil {
			cp := *app
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memApps) Update(_ context.Context, app *entity.Application) error {
	cp := *app
	m.byID[app.ID] = &cp
	return nil
}

func (m *memApps) SoftDelete(_ context.Context, id int64, at time.Time) error {
	if app, ok := m.byID[id]; ok {
		app.DeletedAt = &at
	}
	return nil
}

func (m *memApps) List(_ context.Context, filter port.ApplicationFilter) ([]*entity.Application, int, error) {
	var out []*entity.Application
	for _, app := range m.byID {
		if app.DeletedAt != nil {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if filter.AwaitingAction && !app.Status.AwaitingAction() {
			continue
		}
		cp := *app
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *memApps) CountByStatus(_ context.Context) (map[workflow.Status]int, error) {
	counts := make(map[workflow.Status]int)
	for _, app := range m.byID {
		if app.DeletedAt == nil {
			counts[app.Status]++
		}
	}
	return counts, nil
}

type memLogs struct {
	entries []*entity.WorkflowLog
}

func (m *memLogs) Create(_ context.Context, log *entity.WorkflowLog) error {
	log.ID = int64(len(m.entries) + 1)
	log.CreatedAt = time.Now()
	cp := *log
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLogs) ListByApplication(_ context.Context, id int64) ([]*entity.WorkflowLog, error) {
	var out []*entity.WorkflowLog
	for _, e := range m.entries {
		if e.ApplicationID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLogs) AverageStageSeconds(_ context.Context) (map[workflow.Status]float64, error) {
	return map[workflow.Status]float64{}, nil
}

func (m *memLogs) AverageDecisionDays(_ context.Context) (float64, error) {
	return 0, nil
}

type memPayments struct {
	payments []*entity.Payment
}

func (m *memPayments) Create(_ context.Context, p *entity.Payment) error {
	p.ID = int64(len(m.payments) + 1)
	cp := *p
	m.payments = append(m.payments, &cp)
	return nil
}

func (m *memPayments) ListByApplication(_ context.Context, id int64) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range m.payments {
		if p.ApplicationID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPayments) SumCompleted(_ context.Context, id int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range m.payments {
		if p.ApplicationID == id && p.Status == entity.PaymentStatusCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

type memOutbox struct {
	messages []*entity.OutboxMessage
}

func (m *memOutbox) Create(_ context.Context, msg *entity.OutboxMessage) error {
	msg.ID = int64(len(m.messages) + 1)
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *memOutbox) ListDue(_ context.Context, now time.Time, limit int) ([]*entity.OutboxMessage, error) {
	var out []*entity.OutboxMessage
	for _, msg := range m.messages {
		if msg.Status == entity.OutboxStatusPending && !msg.NextAttemptAt.After(now) {
			out = append(out, msg)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memOutbox) MarkSent(_ context.Context, id int64, at time.Time) error {
	for _, msg := range m.messages {
		if msg.ID == id {
			msg.Status = entity.OutboxStatusSent
			msg.SentAt = &at
		}
	}
	return nil
}

func (m *memOutbox) MarkRetry(_ context.Context, id int64, attempts int, next time.Time, lastError string) error {
	for _, msg := range m.messages {
		if msg.ID == id {
			msg.Attempts = attempts
			msg.NextAttemptAt = next
			msg.LastError = lastError
		}
	}
	return nil
}

func (m *memOutbox) MarkFailed(_ context.Context, id int64, attempts int, lastError string) error {
	for _, msg := range m.messages {
		if msg.ID == id {
			msg.Status = entity.OutboxStatusFailed
			msg.Attempts = attempts
			msg.LastError = lastError
		}
	}
	return nil
}

func (m *memOutbox) byKind(kind string) []*entity.OutboxMessage {
	var out []*entity.OutboxMessage
	for _, msg := range m.messages {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

type memNotices struct {
	notices []*entity.Notification
}

func (m *memNotices) Create(_ context.Context, n *entity.Notification) error {
	n.ID = int64(len(m.notices) + 1)
	cp := *n
	m.notices = append(m.notices, &cp)
	return nil
}

func (m *memNotices) ListByRole(_ context.Context, role string, _ bool, _ int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range m.notices {
		if n.RecipientRole == role {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotices) MarkRead(_ context.Context, id int64) error { return nil }

type memPrograms struct {
	programs map[int64]*entity.Program
}

func (m *memPrograms) GetByID(_ context.Context, id int64) (*entity.Program, error) {
	return m.programs[id], nil
}

func (m *memPrograms) GetByCode(_ context.Context, code string) (*entity.Program, error) {
	for _, p := range m.programs {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memPrograms) ListActive(_ context.Context) ([]*entity.Program, error) {
	var out []*entity.Program
	for _, p := range m.programs {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeProvisioner counts calls and hands out sequential student numbers
type fakeProvisioner struct {
	calls int
	fail  error
}

func (f *fakeProvisioner) CreateStudentAccount(_ context.Context, app *entity.Application) (*entity.Provisioned, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	number := fmt.Sprintf("2026%02d%04d", app.ProgramID, f.calls)
	return &entity.Provisioned{
		Student: &entity.Student{
			ID:              int64(f.calls),
			StudentNumber:   number,
			UniversityEmail: fmt.Sprintf("stu%d@student.example.edu", f.calls),
		},
		User:       &entity.UserAccount{ID: int64(f.calls)},
		Credential: "initial-password",
	}, nil
}

// passTx runs the function without a real database transaction
type passTx struct{}

func (passTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// --- fixture ---

type fixture struct {
	svc         *AdmissionService
	apps        *memApps
	logs        *memLogs
	payments    *memPayments
	outbox      *memOutbox
	notices     *memNotices
	provisioner *fakeProvisioner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		apps:        newMemApps(),
		logs:        &memLogs{},
		payments:    &memPayments{},
		outbox:      &memOutbox{},
		notices:     &memNotices{},
		provisioner: &fakeProvisioner{},
	}
	programs := &memPrograms{programs: map[int64]*entity.Program{
		1: {ID: 1, Code: "01", NameEn: "Computer Science", IsActive: true},
		2: {ID: 2, Code: "02", NameEn: "Business Administration", IsActive: true},
	}}
	f.svc = NewAdmissionService(
		f.apps, f.logs, f.payments, f.outbox, f.notices, programs,
		f.provisioner, passTx{},
		Config{
			MinRegistrationFee: decimal.NewFromInt(100),
			MaxRegistrationFee: decimal.NewFromInt(10000),
		},
		nopLogger{},
	)
	return f
}

var (
	admissions = Actor{ID: 10, Role: workflow.RoleAdmissions}
	finance    = Actor{ID: 20, Role: workflow.RoleFinance}
	registrar  = Actor{ID: 30, Role: workflow.RoleRegistrar}
)

func (f *fixture) submit(t *testing.T) *entity.Application {
	t.Helper()
	app, err := f.svc.Submit(context.Background(), SubmitInput{
		ProgramID:   1,
		FullName:    "Amina Hassan",
		Email:       "amina@example.com",
		Phone:       "+20100000001",
		NationalID:  "29901011234567",
		DateOfBirth: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      "FEMALE",
		Nationality: "Egyptian",
	}, System)
	require.NoError(t, err)
	return app
}

// advance walks an application up to PAYMENT_RECEIVED
func (f *fixture) advanceToPaymentReceived(t *testing.T) *entity.Application {
	t.Helper()
	ctx := context.Background()
	app := f.submit(t)

	_, err := f.svc.StartReview(ctx, app.ID, admissions)
	require.NoError(t, err)
	_, err = f.svc.VerifyDocuments(ctx, app.ID, "transcripts checked", admissions)
	require.NoError(t, err)
	_, err = f.svc.RequestPayment(ctx, app.ID, decimal.NewFromInt(500), admissions)
	require.NoError(t, err)
	_, updated, err := f.svc.RecordPayment(ctx, app.ID, RecordPaymentInput{
		Amount: decimal.NewFromInt(500),
		Method: entity.PaymentMethodBankTransfer,
	}, finance)
	require.NoError(t, err)
	return updated
}

// --- tests ---

func TestSubmit_CreatesPendingApplication(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)

	assert.Equal(t, workflow.StatusPending, app.Status)
	assert.Equal(t, "APP-000001", app.Reference())

	logs, _ := f.logs.ListByApplication(context.Background(), app.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.LogApplicationSubmitted, logs[0].Action)
	assert.Nil(t, logs[0].FromStatus)
	assert.Equal(t, workflow.StatusPending, logs[0].ToStatus)
	assert.Nil(t, logs[0].PerformedBy, "public submissions carry no staff id")

	// Confirmation email queued, admissions staff notified.
	assert.Len(t, f.outbox.byKind(entity.OutboxKindEmail), 1)
	assert.Len(t, f.notices.notices, 1)
	assert.Equal(t, workflow.RoleAdmissions.String(), f.notices.notices[0].RecipientRole)
}

func TestSubmit_StaffEntryAttributed(t *testing.T) {
	f := newFixture(t)

	app, err := f.svc.Submit(context.Background(), SubmitInput{
		ProgramID:   1,
		FullName:    "Walk-in Applicant",
		Email:       "walkin@example.com",
		Phone:       "+20100000009",
		NationalID:  "29901019999999",
		DateOfBirth: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      "MALE",
		Nationality: "Egyptian",
		Source:      "STAFF",
	}, admissions)
	require.NoError(t, err)

	// A staff-entered application carries the staff member on the submission
	// log row; only system-initiated submissions leave it empty.
	logs, _ := f.logs.ListByApplication(context.Background(), app.ID)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].PerformedBy)
	assert.Equal(t, admissions.ID, *logs[0].PerformedBy)
}

func TestSubmit_DuplicateNationalID(t *testing.T) {
	f := newFixture(t)
	f.submit(t)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		ProgramID:   1,
		FullName:    "Someone Else",
		Email:       "other@example.com",
		Phone:       "+20100000002",
		NationalID:  "29901011234567",
		DateOfBirth: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      "MALE",
		Nationality: "Egyptian",
	}, System)

	require.Error(t, err)
	var validationErr *workflow.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "national_id", validationErr.Field)
}

func TestSubmit_UnknownProgram(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		ProgramID:   99,
		FullName:    "Nobody",
		Email:       "nobody@example.com",
		Phone:       "x",
		NationalID:  "123",
		DateOfBirth: time.Now(),
		Gender:      "MALE",
		Nationality: "Egyptian",
	}, System)

	assert.ErrorIs(t, err, workflow.ErrValidation)
}

func TestHappyPath_ExactlySixLogEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.advanceToPaymentReceived(t)
	approved, prov, err := f.svc.Approve(ctx, app.ID, registrar)
	require.NoError(t, err)
	require.NotNil(t, prov)

	assert.Equal(t, workflow.StatusApproved, approved.Status)
	require.NotNil(t, approved.StudentID)
	assert.Equal(t, prov.Student.StudentNumber, *approved.StudentID)
	assert.Equal(t, 1, f.provisioner.calls)

	logs, _ := f.logs.ListByApplication(ctx, app.ID)
	require.Len(t, logs, 6, "one log entry per transition, nothing else")

	wantActions := []string{
		entity.LogApplicationSubmitted,
		entity.LogUnderReview,
		entity.LogDocumentsVerified,
		entity.LogPaymentRequested,
		entity.LogPaymentReceived,
		entity.LogApplicationApproved,
	}
	for i, want := range wantActions {
		assert.Equal(t, want, logs[i].Action, "entry %d", i)
	}

	// Consecutive entries chain: each from_status equals the previous to_status.
	for i := 1; i < len(logs); i++ {
		require.NotNil(t, logs[i].FromStatus)
		assert.Equal(t, logs[i-1].ToStatus, *logs[i].FromStatus, "entry %d", i)
	}

	// Approval metadata carries the provisioned identity.
	assert.Contains(t, logs[5].Metadata, prov.Student.StudentNumber)

	// Documents intent queued once, alongside the approval email.
	assert.Len(t, f.outbox.byKind(entity.OutboxKindDocuments), 1)
}

func TestApprove_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.advanceToPaymentReceived(t)
	_, _, err := f.svc.Approve(ctx, app.ID, registrar)
	require.NoError(t, err)

	// Second approval: no error, no second account, no extra log entry.
	again, _, err := f.svc.Approve(ctx, app.ID, registrar)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, again.Status)
	assert.Equal(t, 1, f.provisioner.calls)

	logs, _ := f.logs.ListByApplication(ctx, app.ID)
	assert.Len(t, logs, 6)
	assert.Len(t, f.outbox.byKind(entity.OutboxKindDocuments), 1)
}

func TestApprove_RetryStillChecksCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.advanceToPaymentReceived(t)
	_, _, err := f.svc.Approve(ctx, app.ID, registrar)
	require.NoError(t, err)

	// The idempotent retry path is not a capability bypass: a role that may
	// not approve gets a ForbiddenError even on an approved application.
	_, _, err = f.svc.Approve(ctx, app.ID, finance)
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrActionForbidden)
	assert.Equal(t, 1, f.provisioner.calls)
}

func TestApprove_FromDocumentsVerified_TransitionError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)
	_, err := f.svc.StartReview(ctx, app.ID, admissions)
	require.NoError(t, err)
	_, err = f.svc.VerifyDocuments(ctx, app.ID, "", admissions)
	require.NoError(t, err)

	_, _, err = f.svc.Approve(ctx, app.ID, registrar)
	require.Error(t, err)

	var transitionErr *workflow.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, workflow.StatusDocumentsVerified, transitionErr.Current)
	assert.Equal(t, []workflow.Status{workflow.StatusPaymentReceived}, transitionErr.LegalFrom)
	assert.Zero(t, f.provisioner.calls, "guard failure must not reach the provisioner")
}

func TestApprove_ProvisioningFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.advanceToPaymentReceived(t)
	f.provisioner.fail = fmt.Errorf("sis unavailable")

	_, _, err := f.svc.Approve(ctx, app.ID, registrar)
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrProvisioning)
}

func TestRecordPayment_PartialAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)
	_, err := f.svc.StartReview(ctx, app.ID, admissions)
	require.NoError(t, err)
	_, err = f.svc.VerifyDocuments(ctx, app.ID, "", admissions)
	require.NoError(t, err)
	_, err = f.svc.RequestPayment(ctx, app.ID, decimal.NewFromInt(500), admissions)
	require.NoError(t, err)

	// First installment does not cover the fee: status stays PENDING_PAYMENT.
	_, updated, err := f.svc.RecordPayment(ctx, app.ID, RecordPaymentInput{
		Amount: decimal.NewFromInt(200),
		Method: entity.PaymentMethodCash,
	}, finance)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingPayment, updated.Status)

	logs, _ := f.logs.ListByApplication(ctx, app.ID)
	last := logs[len(logs)-1]
	assert.Equal(t, entity.LogPaymentRecorded, last.Action)
	assert.Equal(t, workflow.StatusPendingPayment, last.ToStatus)

	// Second installment completes the fee and advances.
	_, updated, err = f.svc.RecordPayment(ctx, app.ID, RecordPaymentInput{
		Amount: decimal.NewFromInt(300),
		Method: entity.PaymentMethodCash,
	}, finance)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPaymentReceived, updated.Status)
	require.NotNil(t, updated.PaymentReceivedAt)
}

func TestRecordPayment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)

	_, _, err := f.svc.RecordPayment(ctx, app.ID, RecordPaymentInput{
		Amount: decimal.NewFromInt(-5),
		Method: entity.PaymentMethodCash,
	}, finance)
	assert.ErrorIs(t, err, workflow.ErrValidation)

	_, _, err = f.svc.RecordPayment(ctx, app.ID, RecordPaymentInput{
		Amount: decimal.NewFromInt(50),
		Method: "IOU",
	}, finance)
	assert.ErrorIs(t, err, workflow.ErrValidation)
}

func TestRequestPayment_FeeBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)
	_, err := f.svc.StartReview(ctx, app.ID, admissions)
	require.NoError(t, err)
	_, err = f.svc.VerifyDocuments(ctx, app.ID, "", admissions)
	require.NoError(t, err)

	_, err = f.svc.RequestPayment(ctx, app.ID, decimal.NewFromInt(50), admissions)
	assert.ErrorIs(t, err, workflow.ErrValidation, "below minimum")

	_, err = f.svc.RequestPayment(ctx, app.ID, decimal.NewFromInt(20000), admissions)
	assert.ErrorIs(t, err, workflow.ErrValidation, "above maximum")

	_, err = f.svc.RequestPayment(ctx, app.ID, decimal.NewFromInt(500), admissions)
	assert.NoError(t, err)
}

func TestReject_RequiresReason(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)

	_, err := f.svc.Reject(context.Background(), app.ID, "", admissions)
	require.Error(t, err)
	var validationErr *workflow.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "reason", validationErr.Field)
}

func TestReject_NoProvisioningSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)
	rejected, err := f.svc.Reject(ctx, app.ID, "incomplete records", admissions)
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusRejected, rejected.Status)
	assert.Nil(t, rejected.StudentID)
	assert.Zero(t, f.provisioner.calls)
	assert.Empty(t, f.outbox.byKind(entity.OutboxKindDocuments))

	// Terminal: nothing further is legal.
	_, err = f.svc.StartReview(ctx, app.ID, admissions)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	_, _, err = f.svc.Approve(ctx, app.ID, registrar)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestDoubleTransition_SecondFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)
	_, err := f.svc.StartReview(ctx, app.ID, admissions)
	require.NoError(t, err)
	_, err = f.svc.VerifyDocuments(ctx, app.ID, "", admissions)
	require.NoError(t, err)

	// Verifying again is not legal from DOCUMENTS_VERIFIED.
	_, err = f.svc.VerifyDocuments(ctx, app.ID, "", admissions)
	require.Error(t, err)
	var transitionErr *workflow.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, workflow.StatusDocumentsVerified, transitionErr.Current)

	logs, _ := f.logs.ListByApplication(ctx, app.ID)
	assert.Len(t, logs, 3, "the failed attempt must leave no log entry")
}

func TestWaitlist_ReopenAndReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)
	waitlisted, err := f.svc.Waitlist(ctx, app.ID, "cohort full", admissions)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusWaitlisted, waitlisted.Status)

	// Waitlisting a waitlisted application is not legal.
	_, err = f.svc.Waitlist(ctx, app.ID, "", admissions)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	// Reopen puts it back under review with a fresh reviewer.
	reopened, err := f.svc.Reopen(ctx, app.ID, admissions)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusUnderReview, reopened.Status)
	require.NotNil(t, reopened.ReviewedBy)
	assert.Equal(t, admissions.ID, *reopened.ReviewedBy)

	// A waitlisted application may still be rejected outright.
	_, err = f.svc.Waitlist(ctx, app.ID, "cohort full again", admissions)
	require.NoError(t, err)
	rejected, err := f.svc.Reject(ctx, app.ID, "no seats this year", admissions)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejected, rejected.Status)
}

func TestCapability_FinanceCannotApprove(t *testing.T) {
	f := newFixture(t)
	app := f.advanceToPaymentReceived(t)

	_, _, err := f.svc.Approve(context.Background(), app.ID, finance)
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrActionForbidden)
}

func TestCapability_AdmissionsCannotRecordPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)
	_, err := f.svc.StartReview(ctx, app.ID, admissions)
	require.NoError(t, err)
	_, err = f.svc.VerifyDocuments(ctx, app.ID, "", admissions)
	require.NoError(t, err)
	_, err = f.svc.RequestPayment(ctx, app.ID, decimal.NewFromInt(500), admissions)
	require.NoError(t, err)

	_, _, err = f.svc.RecordPayment(ctx, app.ID, RecordPaymentInput{
		Amount: decimal.NewFromInt(500),
		Method: entity.PaymentMethodCash,
	}, admissions)
	assert.ErrorIs(t, err, workflow.ErrActionForbidden)
}

func TestStartReview_Reassignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.submit(t)
	first, err := f.svc.StartReview(ctx, app.ID, admissions)
	require.NoError(t, err)
	require.NotNil(t, first.ReviewedBy)
	assert.Equal(t, admissions.ID, *first.ReviewedBy)

	other := Actor{ID: 11, Role: workflow.RoleAdmissions}
	second, err := f.svc.StartReview(ctx, app.ID, other)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusUnderReview, second.Status)
	assert.Equal(t, other.ID, *second.ReviewedBy)
}

func TestGetByLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t)

	byRef, err := f.svc.GetByLookup(ctx, app.Reference())
	require.NoError(t, err)
	assert.Equal(t, app.ID, byRef.ID)

	byEmail, err := f.svc.GetByLookup(ctx, "amina@example.com")
	require.NoError(t, err)
	assert.Equal(t, app.ID, byEmail.ID)

	byNID, err := f.svc.GetByLookup(ctx, "29901011234567")
	require.NoError(t, err)
	assert.Equal(t, app.ID, byNID.ID)

	_, err = f.svc.GetByLookup(ctx, "unknown@example.com")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestDelete_RegistrarOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t)

	err := f.svc.Delete(ctx, app.ID, admissions)
	assert.ErrorIs(t, err, workflow.ErrActionForbidden)

	err = f.svc.Delete(ctx, app.ID, registrar)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, app.ID)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}
