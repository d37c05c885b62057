package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an action is not legal from the current status
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrActionForbidden is returned when the actor's role may not perform the action
	ErrActionForbidden = errors.New("action not permitted for role")

	// ErrNotFound is returned when the referenced application does not exist
	ErrNotFound = errors.New("application not found")

	// ErrValidation is returned for malformed or missing input
	ErrValidation = errors.New("validation failed")

	// ErrProvisioning is returned when student account or document creation fails
	ErrProvisioning = errors.New("provisioning failed")

	// ErrConflict is returned on lock contention; the request is safe to retry
	ErrConflict = errors.New("conflicting concurrent update")
)

// TransitionError reports an action that is illegal from the application's
// current persisted status, including the actions that would be legal from it
// and the statuses the attempted action is legal from.
type TransitionError struct {
	Current   Status
	Action    Action
	Allowed   []Action
	LegalFrom []Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from status %s (legal from: %v, allowed here: %v)",
		e.Action, e.Current, e.LegalFrom, e.Allowed)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ForbiddenError reports an actor role attempting an action outside its capabilities
type ForbiddenError struct {
	Role   Role
	Action Action
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %s may not perform %s", e.Role, e.Action)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrActionForbidden
}

// ValidationError reports a single rejected input field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ProvisioningError reports a failure while creating the student identity or
// its documents after payment was confirmed. Retrying the approval is safe.
type ProvisioningError struct {
	Stage string
	Err   error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning %s: %v", e.Stage, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return ErrProvisioning
}
