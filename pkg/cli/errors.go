package cli

import "errors"

// Common CLI errors
var (
	ErrNoSchemas    = errors.New("no schema files matched")
	ErrChecksFailed = errors.New("one or more checks failed")
	ErrVerifyFailed = errors.New("generated records failed verification")
)

// ExitChecksFailed is the exit code used when values do not conform, as
// opposed to 1 for operational errors.
const ExitChecksFailed = 2

// exitError carries a specific exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
