package schema

import (
	"errors"
	"fmt"
)

// ErrInvalidSchema is matched by every *InvalidSchemaError via errors.Is.
var ErrInvalidSchema = errors.New("invalid schema")

// ErrMalformedDocument wraps errors from decoding document text that is
// neither valid JSON nor valid YAML.
var ErrMalformedDocument = errors.New("malformed schema document")

// InvalidSchemaError reports a schema node that is absent or is not a
// structural object.
type InvalidSchemaError struct {
	// Path is the location of the offending node, e.g. "/properties/id/items".
	// The document root is "".
	Path   string
	Reason string
}

func (e *InvalidSchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid schema: %s", e.Reason)
	}
	return fmt.Sprintf("invalid schema at %s: %s", e.Path, e.Reason)
}

// Is reports whether target is ErrInvalidSchema.
func (e *InvalidSchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

func invalid(path, format string, args ...any) *InvalidSchemaError {
	return &InvalidSchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
