package book

import "errors"

// ErrNotFound indicates no contact matched the requested name.
var ErrNotFound = errors.New("book: contact not found")

// ValidationError reports a field value that violates a contact format rule.
// Error returns the human-readable reason only, so callers can show it as-is.
type ValidationError struct {
	Field  string // "phone" or "email".
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
