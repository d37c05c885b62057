package workflow

// Role identifies the kind of actor attempting a workflow action
type Role string

const (
	RoleApplicant  Role = "APPLICANT"
	RoleAdmissions Role = "ADMISSIONS"
	RoleFinance    Role = "FINANCE"
	RoleRegistrar  Role = "REGISTRAR"
)

var validRoles = map[Role]bool{
	RoleApplicant:  true,
	RoleAdmissions: true,
	RoleFinance:    true,
	RoleRegistrar:  true,
}

// capabilities is the explicit {role, action} permission table, checked by the
// guard before the state table. The registrar acts as an administrative
// override and may perform every staff action.
var capabilities = map[Role]map[Action]bool{
	RoleApplicant: {
		ActionSubmit: true,
	},
	RoleAdmissions: {
		ActionSubmit:          true, // staff may submit on an applicant's behalf
		ActionStartReview:     true,
		ActionVerifyDocuments: true,
		ActionRequestPayment:  true,
		ActionApprove:         true,
		ActionReject:          true,
		ActionWaitlist:        true,
		ActionReopen:          true,
	},
	RoleFinance: {
		ActionRecordPayment: true,
	},
	RoleRegistrar: {
		ActionSubmit:          true,
		ActionStartReview:     true,
		ActionVerifyDocuments: true,
		ActionRequestPayment:  true,
		ActionRecordPayment:   true,
		ActionApprove:         true,
		ActionReject:          true,
		ActionWaitlist:        true,
		ActionReopen:          true,
	},
}

// Can returns true if the role is permitted to perform the action
func (r Role) Can(a Action) bool {
	return capabilities[r][a]
}

// IsValid returns true if the role is a defined actor role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
