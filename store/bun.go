package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	blogify "github.com/HiravPansuriya/blogify-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// sessionSlot is the Bun model for the persisted session. The table holds at
// most one row per slot; embedding apps that manage several accounts use
// distinct slot names.
type sessionSlot struct {
	bun.BaseModel `bun:"table:client_sessions"`

	Slot      string    `bun:"slot,pk"`
	Token     string    `bun:"token,notnull"`
	User      []byte    `bun:"user_data,type:jsonb"`
	UpdatedAt time.Time `bun:"updated_at,default:current_timestamp"`
}

// DefaultSlot is the slot name used when none is configured.
const DefaultSlot = "default"

// BunOption customizes bun store construction.
type BunOption func(*BunStore)

// WithSlot selects the row this store reads and writes.
func WithSlot(slot string) BunOption {
	return func(s *BunStore) {
		if slot != "" {
			s.slot = slot
		}
	}
}

// WithBunLogger overrides the store's logger.
func WithBunLogger(logger blogify.Logger) BunOption {
	return func(s *BunStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// BunStore persists the session in a single-row table using Bun. Upserts keep
// token and identity in one atomic write.
type BunStore struct {
	db     *bun.DB
	slot   string
	logger blogify.Logger
}

var _ blogify.SessionStore = (*BunStore)(nil)

// NewBunStore creates a store backed by db.
func NewBunStore(db *bun.DB, opts ...BunOption) *BunStore {
	s := &BunStore{
		db:     db,
		slot:   DefaultSlot,
		logger: blogify.NoopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Init creates the backing table when it does not exist.
func (s *BunStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*sessionSlot)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session table")
	}
	return nil
}

// Load reads the persisted session. Missing or malformed rows yield
// (nil, nil); malformed rows are deleted.
func (s *BunStore) Load(ctx context.Context) (*blogify.Session, error) {
	var row sessionSlot
	err := s.db.NewSelect().
		Model(&row).
		Where("slot = ?", s.slot).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session row")
	}

	user := &blogify.Identity{}
	if err := json.Unmarshal(row.User, user); err != nil {
		s.logger.Warn("discarding malformed session row for slot %s", s.slot)
		_ = s.Clear(ctx)
		return nil, nil
	}

	session := &blogify.Session{Token: row.Token, User: user}
	if !session.Valid() {
		s.logger.Warn("discarding incomplete session row for slot %s", s.slot)
		_ = s.Clear(ctx)
		return nil, nil
	}

	return session, nil
}

// Save upserts the session into the store's slot. Saving nil clears it.
func (s *BunStore) Save(ctx context.Context, session *blogify.Session) error {
	if session == nil {
		return s.Clear(ctx)
	}

	user, err := json.Marshal(session.User)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode identity")
	}

	row := &sessionSlot{
		Slot:      s.slot,
		Token:     session.Token,
		User:      user,
		UpdatedAt: time.Now(),
	}

	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (slot) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("user_data = EXCLUDED.user_data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save session row")
	}

	return nil
}

// Clear deletes the slot's row. Idempotent.
func (s *BunStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*sessionSlot)(nil)).
		Where("slot = ?", s.slot).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear session row")
	}
	return nil
}
