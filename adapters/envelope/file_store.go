// Package envelope provides durable stores for the persisted session
// envelope.
package envelope

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

const envelopeFile = "session.json"

// FileStore persists the session envelope as a JSON file on disk. Writes go
// through a temp file and rename so a crash never leaves a torn envelope.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

var _ ports.EnvelopeStore = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir. The directory must exist.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Save writes the envelope.
func (s *FileStore) Save(ctx context.Context, env core.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, envelopeFile)
	tmp, err := os.CreateTemp(s.dir, envelopeFile+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() { _ = os.Remove(name) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}

// Load reads the envelope. A missing or malformed file is reported as absent,
// not as an error.
func (s *FileStore) Load(ctx context.Context) (core.Envelope, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, envelopeFile))
	if errors.Is(err, os.ErrNotExist) {
		return core.Envelope{}, false, nil
	}
	if err != nil {
		return core.Envelope{}, false, err
	}

	var env core.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return core.Envelope{}, false, nil
	}
	return env, true, nil
}

// Clear removes the envelope. Clearing an absent envelope is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, envelopeFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
