package discovery

import "errors"

// ErrNotFound is returned when a referenced job does not exist. Callers
// must be able to distinguish a stale reference from malformed input.
var ErrNotFound = errors.New("job not found")

// ErrUnauthenticated is returned when no user can be resolved for the
// caller's identity.
var ErrUnauthenticated = errors.New("unknown user")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
