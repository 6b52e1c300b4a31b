package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PersistError reports that a new configuration could not be written.
// The in-memory configuration is unchanged when it is returned.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("persist config: %v", e.Err)
	}
	return fmt.Sprintf("persist config %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

type Persister interface {
	Save(cfg Config) error
}

// Store is the process-wide configuration shared by the coordinator, the
// translation client and the settings window.
type Store struct {
	writeMu   sync.Mutex
	mu        sync.RWMutex
	cfg       Config
	persister Persister
}

// NewStore wraps initial. A nil persister keeps changes in memory only.
func NewStore(initial Config, p Persister) *Store {
	return &Store{cfg: initial, persister: p}
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace validates next, persists it, then swaps it in. Concurrent calls
// are serialized so the file and memory agree on the last writer.
func (s *Store) Replace(next Config) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.persister != nil {
		if err := s.persister.Save(next); err != nil {
			var pe *PersistError
			if errors.As(err, &pe) {
				return err
			}
			return &PersistError{Err: err}
		}
	}

	s.mu.Lock()
	s.cfg = next
	s.mu.Unlock()
	return nil
}

// FilePersister writes the configuration as indented JSON, replacing the
// file atomically.
type FilePersister struct {
	Path string
}

func (p FilePersister) Save(cfg Config) error {
	data, err := json.MarshalIndent(toRecord(cfg), "", "  ")
	if err != nil {
		return &PersistError{Path: p.Path, Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(p.Path)
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return &PersistError{Path: p.Path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &PersistError{Path: p.Path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &PersistError{Path: p.Path, Err: err}
	}
	if err := os.Rename(tmpName, p.Path); err != nil {
		_ = os.Remove(tmpName)
		return &PersistError{Path: p.Path, Err: err}
	}
	return nil
}
