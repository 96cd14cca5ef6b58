package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

var schemaExts = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// SchemaName derives the store name for a schema file: its base name
// without extension. ok is false for files that are not schema documents.
func SchemaName(path string) (name string, ok bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if !schemaExts[ext] {
		return "", false
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), true
}

// LoadDir stores every schema file directly inside dir and returns how
// many were loaded. Files that fail to parse are logged and skipped.
func LoadDir(store SchemaStore, dir string, log *slog.Logger) (int, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read schema directory: %w", err)
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := loadFile(store, path); err != nil {
			log.Warn("skipping schema file", "path", path, "error", err)
			continue
		}
		loaded++
	}
	return loaded, nil
}

func loadFile(store SchemaStore, path string) error {
	name, ok := SchemaName(path)
	if !ok {
		return fmt.Errorf("unsupported extension %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	stored, err := NewStoredSchema(name, data)
	if err != nil {
		return err
	}
	stored.Source = path
	return store.Set(stored)
}

// Watcher keeps a store in sync with a directory of schema files.
type Watcher struct {
	store SchemaStore
	dir   string
	log   *slog.Logger
	fsw   *fsnotify.Watcher

	// applied receives each handled event, for tests.
	applied func(op fsnotify.Op, name string)
}

// NewWatcher starts watching dir. Call Run to process events.
func NewWatcher(store SchemaStore, dir string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{store: store, dir: dir, log: log, fsw: fsw}, nil
}

// Run applies file events to the store until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("schema watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	name, ok := SchemaName(ev.Name)
	if !ok {
		return
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if _, err := w.store.Delete(name); err != nil {
			w.log.Warn("failed to drop schema", "name", name, "error", err)
			return
		}
		w.log.Info("schema removed", "name", name)
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if err := loadFile(w.store, ev.Name); err != nil {
			// Editors often write partial files; the next write retries.
			w.log.Warn("failed to reload schema", "path", ev.Name, "error", err)
			return
		}
		w.log.Info("schema loaded", "name", name, "path", ev.Name)
	default:
		return
	}
	if w.applied != nil {
		w.applied(ev.Op, name)
	}
}
