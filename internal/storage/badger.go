package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const keyPrefix = "schema/"

// BadgerConfig configures a BadgerSchemaStore.
type BadgerConfig struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps the database in RAM, for tests.
	InMemory bool
	// Logger receives Badger's internal log lines. Nil disables them.
	Logger *slog.Logger
}

// BadgerSchemaStore persists schemas in a Badger database.
type BadgerSchemaStore struct {
	db *badger.DB
}

// record is the persisted form of a StoredSchema.
type record struct {
	Name      string    `json:"name"`
	Document  []byte    `json:"document"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OpenBadger opens (creating if needed) a Badger-backed store.
func OpenBadger(cfg BadgerConfig) (*BadgerSchemaStore, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("data directory is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerSchemaStore{db: db}, nil
}

func (s *BadgerSchemaStore) Get(name string) (*StoredSchema, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read schema %q: %w", name, err)
	}
	return rec.toStored()
}

func (s *BadgerSchemaStore) Set(stored *StoredSchema) error {
	if stored == nil {
		return nil
	}
	if err := ValidateName(stored.Name); err != nil {
		return err
	}
	val, err := json.Marshal(record{
		Name:      stored.Name,
		Document:  stored.Document,
		Source:    stored.Source,
		UpdatedAt: stored.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode schema %q: %w", stored.Name, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+stored.Name), val)
	})
}

func (s *BadgerSchemaStore) Delete(name string) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + name)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("delete schema %q: %w", name, err)
	}
	return existed, nil
}

func (s *BadgerSchemaStore) List() ([]*StoredSchema, error) {
	var records []record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", strings.TrimPrefix(string(it.Item().Key()), keyPrefix), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]*StoredSchema, 0, len(records))
	for _, rec := range records {
		stored, err := rec.toStored()
		if err != nil {
			return nil, err
		}
		result = append(result, stored)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *BadgerSchemaStore) Exists(name string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyPrefix + name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BadgerSchemaStore) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (s *BadgerSchemaStore) Clear() error {
	return s.db.DropPrefix([]byte(keyPrefix))
}

func (s *BadgerSchemaStore) Close() error {
	return s.db.Close()
}

func (r record) toStored() (*StoredSchema, error) {
	stored, err := NewStoredSchema(r.Name, r.Document)
	if err != nil {
		return nil, fmt.Errorf("stored schema %q: %w", r.Name, err)
	}
	stored.Source = r.Source
	stored.UpdatedAt = r.UpdatedAt
	return stored, nil
}

// badgerLogger adapts slog to Badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

var _ SchemaStore = (*BadgerSchemaStore)(nil)
