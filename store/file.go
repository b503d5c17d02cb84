// Package store provides SessionStore implementations: a JSON file store for
// CLI and desktop embeddings, a bun-backed store for applications that
// already carry a database, and an in-memory store for tests and ephemeral
// sessions.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	blogify "github.com/HiravPansuriya/blogify-client"
	goerrors "github.com/goliatone/go-errors"
)

// FileOption customizes file store construction.
type FileOption func(*FileStore)

// WithFileLogger overrides the store's logger.
func WithFileLogger(logger blogify.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// FileStore persists the session as a single JSON document. Writes go
// through a temp file and rename so a crash mid-write can never leave a
// partially written record behind.
type FileStore struct {
	path   string
	logger blogify.Logger
}

var _ blogify.SessionStore = (*FileStore)(nil)

// NewFileStore returns a store writing to path. The parent directory is
// created on first Save.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{
		path:   path,
		logger: blogify.NoopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Load reads the persisted session. A missing file, unreadable JSON, or a
// record without a token all yield (nil, nil): a malformed record is
// indistinguishable from no session, and is removed so the next Load is
// cheap.
func (s *FileStore) Load(_ context.Context) (*blogify.Session, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read session file")
	}

	session := &blogify.Session{}
	if err := json.Unmarshal(raw, session); err != nil || !session.Valid() {
		s.logger.Warn("discarding malformed session record at %s", s.path)
		_ = os.Remove(s.path)
		return nil, nil
	}

	return session, nil
}

// Save writes the session atomically. Saving nil clears the store.
func (s *FileStore) Save(ctx context.Context, session *blogify.Session) error {
	if session == nil {
		return s.Clear(ctx)
	}

	raw, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode session")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session directory")
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create temp session file")
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write session file")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to flush session file")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace session file")
	}

	return os.Chmod(s.path, 0o600)
}

// Clear removes the session file. Idempotent.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove session file")
	}
	return nil
}
