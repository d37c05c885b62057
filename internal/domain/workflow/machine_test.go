package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusUnderReview, false},
		{StatusDocumentsVerified, false},
		{StatusPendingPayment, false},
		{StatusPaymentReceived, false},
		{StatusApproved, true},
		{StatusRejected, true},
		{StatusWaitlisted, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestStatus_AwaitingAction(t *testing.T) {
	for _, s := range AwaitingStatuses() {
		assert.True(t, s.AwaitingAction(), s.String())
	}
	assert.False(t, StatusApproved.AwaitingAction())
	assert.False(t, StatusRejected.AwaitingAction())
	assert.False(t, Status("BOGUS").AwaitingAction())
}

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachine()

	steps := []struct {
		from   Status
		action Action
		to     Status
	}{
		{StatusPending, ActionStartReview, StatusUnderReview},
		{StatusUnderReview, ActionVerifyDocuments, StatusDocumentsVerified},
		{StatusDocumentsVerified, ActionRequestPayment, StatusPendingPayment},
		{StatusPendingPayment, ActionRecordPayment, StatusPaymentReceived},
		{StatusPaymentReceived, ActionApprove, StatusApproved},
	}

	for _, step := range steps {
		next, ok := m.Next(step.from, step.action)
		require.True(t, ok, "%s from %s should be defined", step.action, step.from)
		assert.Equal(t, step.to, next)
	}
}

func TestMachine_SideExits(t *testing.T) {
	m := NewMachine()

	// REJECT is legal from every non-terminal status, including WAITLISTED.
	for _, s := range Statuses() {
		next, ok := m.Next(s, ActionReject)
		if s.IsTerminal() {
			assert.False(t, ok, "REJECT from %s", s)
			continue
		}
		require.True(t, ok, "REJECT from %s", s)
		assert.Equal(t, StatusRejected, next)
	}

	// WAITLIST is legal from every non-terminal status except WAITLISTED itself.
	for _, s := range Statuses() {
		_, ok := m.Next(s, ActionWaitlist)
		if s.IsTerminal() || s == StatusWaitlisted {
			assert.False(t, ok, "WAITLIST from %s", s)
			continue
		}
		assert.True(t, ok, "WAITLIST from %s", s)
	}

	// REOPEN only leaves WAITLISTED, back into review.
	next, ok := m.Next(StatusWaitlisted, ActionReopen)
	require.True(t, ok)
	assert.Equal(t, StatusUnderReview, next)
	for _, s := range Statuses() {
		if s == StatusWaitlisted {
			continue
		}
		_, ok := m.Next(s, ActionReopen)
		assert.False(t, ok, "REOPEN from %s", s)
	}
}

func TestMachine_TerminalStatesAdmitNothing(t *testing.T) {
	m := NewMachine()

	for _, s := range []Status{StatusApproved, StatusRejected} {
		assert.Empty(t, m.AllowedActions(s), "actions from %s", s)
	}
}

func TestMachine_ReviewerReassignment(t *testing.T) {
	m := NewMachine()

	next, ok := m.Next(StatusUnderReview, ActionStartReview)
	require.True(t, ok)
	assert.Equal(t, StatusUnderReview, next)
}

func TestMachine_Check_TransitionError(t *testing.T) {
	m := NewMachine()

	err := m.Check(StatusDocumentsVerified, ActionApprove, RoleRegistrar)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusDocumentsVerified, transitionErr.Current)
	assert.Equal(t, ActionApprove, transitionErr.Action)
	assert.Contains(t, transitionErr.Allowed, ActionRequestPayment)
	assert.Contains(t, transitionErr.Allowed, ActionReject)
	assert.Equal(t, []Status{StatusPaymentReceived}, transitionErr.LegalFrom,
		"APPROVE must only be legal from PAYMENT_RECEIVED")
}

func TestMachine_Check_Capabilities(t *testing.T) {
	m := NewMachine()

	tests := []struct {
		name    string
		status  Status
		action  Action
		role    Role
		wantErr error
	}{
		{"admissions may start review", StatusPending, ActionStartReview, RoleAdmissions, nil},
		{"admissions may not record payment", StatusPendingPayment, ActionRecordPayment, RoleAdmissions, ErrActionForbidden},
		{"finance may record payment", StatusPendingPayment, ActionRecordPayment, RoleFinance, nil},
		{"finance may not approve", StatusPaymentReceived, ActionApprove, RoleFinance, ErrActionForbidden},
		{"registrar may record payment", StatusPendingPayment, ActionRecordPayment, RoleRegistrar, nil},
		{"registrar may approve", StatusPaymentReceived, ActionApprove, RoleRegistrar, nil},
		{"applicant may not approve", StatusPaymentReceived, ActionApprove, RoleApplicant, ErrActionForbidden},
		{"capability checked before state", StatusPending, ActionApprove, RoleFinance, ErrActionForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Check(tt.status, tt.action, tt.role)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestMachine_AllowedActions_Stable(t *testing.T) {
	m := NewMachine()

	first := m.AllowedActions(StatusUnderReview)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.AllowedActions(StatusUnderReview))
	}
	assert.ElementsMatch(t,
		[]Action{ActionStartReview, ActionVerifyDocuments, ActionReject, ActionWaitlist},
		first)
}

func TestRole_Can(t *testing.T) {
	assert.True(t, RoleApplicant.Can(ActionSubmit))
	assert.False(t, RoleApplicant.Can(ActionStartReview))
	assert.False(t, RoleFinance.Can(ActionVerifyDocuments))
	assert.True(t, RoleAdmissions.Can(ActionWaitlist))
	assert.False(t, Role("VISITOR").Can(ActionSubmit))
}
