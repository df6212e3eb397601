package services

import "errors"

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyContent = errors.New("message content is required")
	ErrPeerNotFound = errors.New("peer not found")
)

// AccessDeniedError is returned when the membership-gated policy revokes
// a messaging operation. It carries the billing status and a
// human-readable reason so clients can explain the denial.
type AccessDeniedError struct {
	Status string
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return e.Reason
}
