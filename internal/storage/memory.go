package storage

import (
	"sort"
	"sync"
)

// InMemorySchemaStore is a thread-safe in-memory SchemaStore.
type InMemorySchemaStore struct {
	mu      sync.RWMutex
	schemas map[string]*StoredSchema
}

// NewInMemorySchemaStore creates an empty store.
func NewInMemorySchemaStore() *InMemorySchemaStore {
	return &InMemorySchemaStore{
		schemas: make(map[string]*StoredSchema),
	}
}

func (s *InMemorySchemaStore) Get(name string) (*StoredSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.schemas[name]
	if !ok {
		return nil, ErrNotFound
	}
	return stored, nil
}

func (s *InMemorySchemaStore) Set(stored *StoredSchema) error {
	if stored == nil {
		return nil
	}
	if err := ValidateName(stored.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[stored.Name] = stored
	return nil
}

func (s *InMemorySchemaStore) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.schemas[name]; !exists {
		return false, nil
	}
	delete(s.schemas, name)
	return true, nil
}

func (s *InMemorySchemaStore) List() ([]*StoredSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*StoredSchema, 0, len(s.schemas))
	for _, stored := range s.schemas {
		result = append(result, stored)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *InMemorySchemaStore) Exists(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.schemas[name]
	return ok, nil
}

func (s *InMemorySchemaStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.schemas), nil
}

func (s *InMemorySchemaStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas = make(map[string]*StoredSchema)
	return nil
}

// Close is a no-op.
func (s *InMemorySchemaStore) Close() error { return nil }

var _ SchemaStore = (*InMemorySchemaStore)(nil)
