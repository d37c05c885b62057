package workflow

// Status represents an admission application's position in the approval lifecycle
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusUnderReview       Status = "UNDER_REVIEW"
	StatusDocumentsVerified Status = "DOCUMENTS_VERIFIED"
	StatusPendingPayment    Status = "PENDING_PAYMENT"
	StatusPaymentReceived   Status = "PAYMENT_RECEIVED"
	StatusApproved          Status = "APPROVED"
	StatusRejected          Status = "REJECTED"
	StatusWaitlisted        Status = "WAITLISTED"
)

var validStatuses = map[Status]bool{
	StatusPending:           true,
	StatusUnderReview:       true,
	StatusDocumentsVerified: true,
	StatusPendingPayment:    true,
	StatusPaymentReceived:   true,
	StatusApproved:          true,
	StatusRejected:          true,
	StatusWaitlisted:        true,
}

// Terminal statuses admit no further transitions. WAITLISTED is deliberately
// absent: a waitlisted application can still be reopened into review or rejected.
var terminalStatuses = map[Status]bool{
	StatusApproved: true,
	StatusRejected: true,
}

// IsTerminal returns true if no further transitions are allowed from the status
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a defined lifecycle status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// AwaitingAction returns true if the status implies an outstanding staff task
func (s Status) AwaitingAction() bool {
	return s.IsValid() && !s.IsTerminal()
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// AwaitingStatuses returns every status that implies an outstanding staff task,
// in lifecycle order
func AwaitingStatuses() []Status {
	return []Status{
		StatusPending,
		StatusUnderReview,
		StatusDocumentsVerified,
		StatusPendingPayment,
		StatusPaymentReceived,
		StatusWaitlisted,
	}
}

// Statuses returns all defined statuses in lifecycle order
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusUnderReview,
		StatusDocumentsVerified,
		StatusPendingPayment,
		StatusPaymentReceived,
		StatusApproved,
		StatusRejected,
		StatusWaitlisted,
	}
}

// Label is a localized display name for a status
type Label struct {
	EN string `json:"en"`
	AR string `json:"ar"`
}

// DefaultStatusLabels returns the display labels shown to applicants.
// The table is injected into the engine at construction so deployments can
// override wording without touching workflow code.
func DefaultStatusLabels() map[Status]Label {
	return map[Status]Label{
		StatusPending:           {EN: "Pending Review", AR: "قيد الانتظار"},
		StatusUnderReview:       {EN: "Under Review", AR: "قيد المراجعة"},
		StatusDocumentsVerified: {EN: "Documents Verified", AR: "تم التحقق من المستندات"},
		StatusPendingPayment:    {EN: "Pending Payment", AR: "في انتظار الدفع"},
		StatusPaymentReceived:   {EN: "Payment Received", AR: "تم استلام الدفع"},
		StatusApproved:          {EN: "Approved", AR: "تم القبول"},
		StatusRejected:          {EN: "Rejected", AR: "مرفوض"},
		StatusWaitlisted:        {EN: "Waitlisted", AR: "في قائمة الانتظار"},
	}
}
