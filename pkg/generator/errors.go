package generator

import (
	"errors"
	"fmt"
)

// ErrCannotSatisfyUniqueness is matched by *CannotSatisfyUniquenessError.
var ErrCannotSatisfyUniqueness = errors.New("cannot satisfy uniqueItems")

// CannotSatisfyUniquenessError reports a uniqueItems array whose item schema
// stopped producing new values before the requested length was reached.
type CannotSatisfyUniquenessError struct {
	Path     string
	Want     int
	Got      int
	Attempts int
}

func (e *CannotSatisfyUniquenessError) Error() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("cannot satisfy uniqueItems at %s: wanted %d distinct items, found %d after %d consecutive duplicates",
		path, e.Want, e.Got, e.Attempts)
}

// Is reports whether target is ErrCannotSatisfyUniqueness.
func (e *CannotSatisfyUniquenessError) Is(target error) bool {
	return target == ErrCannotSatisfyUniqueness
}
