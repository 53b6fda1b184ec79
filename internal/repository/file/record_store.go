// Package file implements the service's storage layer: a small JSON-file
// record store plus the rate-limit and submission repositories built on it.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"form-service/internal/util"
)

// RecordStore loads and saves whole JSON snapshots, one logical file per
// path. It hands out a per-path mutex so that each caller can run its full
// load-decide-mutate-persist sequence as a critical section; without that,
// two concurrent requests against the same file lose updates.
type RecordStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		locks: make(map[string]*sync.Mutex),
	}
}

// Locker returns the mutex guarding path. Callers must hold it across their
// whole read-modify-write sequence, not just around Load or Save.
func (s *RecordStore) Locker(path string) *sync.Mutex {
	key := filepath.Clean(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Load reads the snapshot at path into out, which must be a non-nil pointer
// to the caller's container type. A missing file leaves out empty. A file
// that cannot be read or parsed also leaves out empty: corrupt state is
// treated as starting fresh, logged so the data loss is visible. Load never
// fails; only Save reports storage errors.
func (s *RecordStore) Load(path string, out any) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		util.Debug("State file absent, starting empty", util.String("path", path))
		return
	}
	if err != nil {
		util.Warn("State file unreadable, treating as empty",
			util.String("path", path),
			util.ErrorField(err),
		)
		return
	}

	// Decode into a fresh value first so a snapshot that fails mid-parse
	// cannot leave out partially filled.
	fresh := reflect.New(reflect.TypeOf(out).Elem())
	if err := json.Unmarshal(data, fresh.Interface()); err != nil {
		util.Warn("State file corrupt, treating as empty",
			util.String("path", path),
			util.Int("bytes", len(data)),
			util.ErrorField(err),
		)
		return
	}
	reflect.ValueOf(out).Elem().Set(fresh.Elem())
}

// Save writes in as a whole JSON snapshot to path, creating parent
// directories as needed. The snapshot goes to a temp file in the same
// directory and is renamed into place, so a crash mid-write leaves the
// previous snapshot intact.
func (s *RecordStore) Save(path string, in any, pretty bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory %s: %w", dir, err)
	}

	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(in, "", "  ")
	} else {
		data, err = json.Marshal(in)
	}
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod snapshot %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot %s: %w", path, err)
	}
	return nil
}
