// Package sessionfile persists the signed-in session as a YAML file.
package sessionfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/runoshun/boardsync/internal/domain"
)

// Store implements domain.SessionStore using a YAML file.
type Store struct {
	path string
}

// New creates a Store for the given file path.
// The file does not need to exist; it is created on first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the session. A missing file yields the zero session.
func (s *Store) Load() (domain.Session, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, nil
		}
		return domain.Session{}, fmt.Errorf("read session file: %w", err)
	}

	var sess domain.Session
	if err := yaml.Unmarshal(content, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("parse session file: %w", err)
	}
	return sess, nil
}

// Save writes the session, readable only by the current user.
func (s *Store) Save(sess domain.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	content, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Clear removes the session file. Clearing a missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Ensure Store implements domain.SessionStore.
var _ domain.SessionStore = (*Store)(nil)
