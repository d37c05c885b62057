package workflow

import "sort"

// Machine holds the fixed admission transition table and validates requested
// actions against it. A single immutable instance is shared by the engine.
type Machine struct {
	transitions map[Status]map[Action]Status
}

// NewMachine builds the admission workflow transition table:
//
//	PENDING → UNDER_REVIEW → DOCUMENTS_VERIFIED → PENDING_PAYMENT →
//	PAYMENT_RECEIVED → APPROVED
//
// with REJECTED reachable from any non-terminal status, WAITLISTED from any
// non-terminal status except WAITLISTED itself, and REOPEN moving a waitlisted
// application back into review.
func NewMachine() *Machine {
	m := &Machine{transitions: make(map[Status]map[Action]Status)}

	m.permit(StatusPending, ActionStartReview, StatusUnderReview)

	// START_REVIEW from UNDER_REVIEW reassigns the reviewer.
	m.permit(StatusUnderReview, ActionStartReview, StatusUnderReview)
	m.permit(StatusUnderReview, ActionVerifyDocuments, StatusDocumentsVerified)

	m.permit(StatusDocumentsVerified, ActionRequestPayment, StatusPendingPayment)

	m.permit(StatusPendingPayment, ActionRecordPayment, StatusPaymentReceived)

	m.permit(StatusPaymentReceived, ActionApprove, StatusApproved)

	m.permit(StatusWaitlisted, ActionReopen, StatusUnderReview)

	for _, s := range Statuses() {
		if s.IsTerminal() {
			continue
		}
		m.permit(s, ActionReject, StatusRejected)
		if s != StatusWaitlisted {
			m.permit(s, ActionWaitlist, StatusWaitlisted)
		}
	}

	return m
}

func (m *Machine) permit(from Status, action Action, to Status) {
	if m.transitions[from] == nil {
		m.transitions[from] = make(map[Action]Status)
	}
	m.transitions[from][action] = to
}

// Next returns the resulting status of firing the action from the given
// status, and whether the transition is defined at all.
func (m *Machine) Next(current Status, action Action) (Status, bool) {
	to, ok := m.transitions[current][action]
	return to, ok
}

// AllowedActions returns the actions legal from the given status, in a stable order
func (m *Machine) AllowedActions(current Status) []Action {
	actions := make([]Action, 0, len(m.transitions[current]))
	for a := range m.transitions[current] {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// LegalFrom returns the statuses the action may be fired from, in a stable order
func (m *Machine) LegalFrom(action Action) []Status {
	var statuses []Status
	for _, s := range Statuses() {
		if _, ok := m.transitions[s][action]; ok {
			statuses = append(statuses, s)
		}
	}
	return statuses
}

// Check validates that the actor role may perform the action and that the
// action is legal from the current persisted status. It performs no effect.
func (m *Machine) Check(current Status, action Action, role Role) error {
	if !role.Can(action) {
		return &ForbiddenError{Role: role, Action: action}
	}
	if _, ok := m.transitions[current][action]; !ok {
		return &TransitionError{
			Current:   current,
			Action:    action,
			Allowed:   m.AllowedActions(current),
			LegalFrom: m.LegalFrom(action),
		}
	}
	return nil
}
