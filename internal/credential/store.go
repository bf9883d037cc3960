package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// ErrNotFound is returned by a Store that holds no credential yet.
var ErrNotFound = errors.New("credential not found")

// Store persists the credential record between runs.
type Store interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, rec *Record) error
}

// FileStore keeps the record in a JSON file.
// NB: no file locking, concurrent runs are not supported.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the token file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the record. A missing file yields ErrNotFound.
func (s *FileStore) Load(_ context.Context) (*Record, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read token file %s: %w", s.path, err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.path, err)
	}

	return &rec, nil
}

// Save replaces the file with rec. The new content is written to a
// temporary file and renamed over the old one.
func (s *FileStore) Save(_ context.Context, rec *Record) error {
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("failed to write token file %s: %w", s.path, err)
	}

	// the temp file is created 0600 but an existing file keeps its mode
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict token file permissions: %w", err)
	}

	return nil
}
