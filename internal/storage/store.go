package storage

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/goccy/go-json"

	"github.com/getmockd/schemagen/pkg/schema"
)

// ErrNotFound is returned when no schema has the requested name.
var ErrNotFound = errors.New("schema not found")

// ErrInvalidName is returned for names that cannot be used in URLs and keys.
var ErrInvalidName = errors.New("invalid schema name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// SchemaStore stores named schemas.
type SchemaStore interface {
	// Get returns the named schema or ErrNotFound.
	Get(name string) (*StoredSchema, error)

	// Set stores or replaces a schema.
	Set(s *StoredSchema) error

	// Delete removes a schema and reports whether it existed.
	Delete(name string) (bool, error)

	// List returns all schemas sorted by name.
	List() ([]*StoredSchema, error)

	// Exists reports whether a schema with the name is stored.
	Exists(name string) (bool, error)

	// Count returns the number of stored schemas.
	Count() (int, error)

	// Clear removes every schema.
	Clear() error

	// Close releases the backend.
	Close() error
}

// StoredSchema is a named schema document.
type StoredSchema struct {
	Name string `json:"name"`
	// Document is the source text, JSON or YAML.
	Document []byte `json:"document"`
	// Source is the file the schema was loaded from, if any.
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Node is parsed from Document.
	Node schema.Node `json:"-"`
}

// NewStoredSchema parses doc and returns a schema ready to store.
func NewStoredSchema(name string, doc []byte) (*StoredSchema, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	node, err := schema.ParseBytes(doc)
	if err != nil {
		return nil, err
	}
	return &StoredSchema{
		Name:      name,
		Document:  doc,
		UpdatedAt: time.Now().UTC(),
		Node:      node,
	}, nil
}

// JSON returns the document re-encoded as JSON.
func (s *StoredSchema) JSON() (json.RawMessage, error) {
	return schema.ToJSON(s.Document)
}

// ValidateName checks that name is usable as a store key and URL segment.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
