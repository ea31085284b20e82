package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

// SessionStore keeps the signed-in session as a JSON file.
type SessionStore struct {
	path string
}

// NewSessionStore returns a store backed by the file at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Path returns the session file location.
func (s *SessionStore) Path() string { return s.path }

// Load reads the stored session. A missing or incomplete file yields [shared.ErrNotAuthenticated].
func (s *SessionStore) Load() (models.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Session{}, fmt.Errorf("%w: Please sign in first.", shared.ErrNotAuthenticated)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("%w: Please sign in first.", shared.ErrNotAuthenticated)
	}
	if err := session.Require(); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Save writes session, creating parent directories as needed.
func (s *SessionStore) Save(session models.Session) error {
	if err := session.Require(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// SignOut removes the stored session. Signing out twice is not an error.
func (s *SessionStore) SignOut() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// RequireSession loads the session or fails with [shared.ErrNotAuthenticated].
func RequireSession(store *SessionStore) (models.Session, error) {
	if store == nil {
		return models.Session{}, fmt.Errorf("%w: Please sign in first.", shared.ErrNotAuthenticated)
	}
	return store.Load()
}
