package application

import "errors"

var (
	// ErrNotFound is returned when the requested meeting, participant or
	// slot does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrVotingClosed is returned when a vote mutation arrives after the
	// voting deadline.
	ErrVotingClosed = errors.New("application: voting closed")
	// ErrCapExceeded is returned when a new voter's first submission would
	// push the meeting past its distinct-voter cap.
	ErrCapExceeded = errors.New("application: voter cap exceeded")
	// ErrInvalidSlot is returned when a submission references a slot id
	// outside the meeting's current window.
	ErrInvalidSlot = errors.New("application: invalid slot")
	// ErrHostAlreadyAssigned is returned when a second participant claims
	// the host flag.
	ErrHostAlreadyAssigned = errors.New("application: host already assigned")
	// ErrUnauthorized is returned when the supplied admin key does not
	// match the meeting's organizer key.
	ErrUnauthorized = errors.New("application: unauthorized")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
