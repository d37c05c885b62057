package workflow

// Action represents a named operation that moves an application between statuses
type Action string

const (
	ActionSubmit          Action = "SUBMIT"
	ActionStartReview     Action = "START_REVIEW"
	ActionVerifyDocuments Action = "VERIFY_DOCUMENTS"
	ActionRequestPayment  Action = "REQUEST_PAYMENT"
	ActionRecordPayment   Action = "RECORD_PAYMENT"
	ActionApprove         Action = "APPROVE"
	ActionReject          Action = "REJECT"
	ActionWaitlist        Action = "WAITLIST"
	ActionReopen          Action = "REOPEN"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
