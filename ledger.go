package blogify

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/singleflight"
)

// LedgerOption customizes ledger construction.
type LedgerOption func(*Ledger)

// WithLedgerLogger overrides the logger used for sink failures.
func WithLedgerLogger(logger Logger) LedgerOption {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLedgerActivitySink sets the sink that receives change events, so
// badges and lists can re-render without polling.
func WithLedgerActivitySink(sink ActivitySink) LedgerOption {
	return func(l *Ledger) {
		l.activitySink = normalizeActivitySink(sink)
	}
}

// WithLedgerClock injects a custom clock (useful for tests).
func WithLedgerClock(clock func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if clock != nil {
			l.now = clock
		}
	}
}

// Ledger is the in-memory projection of the backend's notification set for
// the authenticated identity. The unread count is always a pure function of
// the set, never a freestanding counter, so concurrent mark-as-read
// confirmations cannot drift it.
type Ledger struct {
	mu           sync.Mutex
	issuer       CredentialIssuer
	token        string
	items        []Notification
	generation   uint64
	inflight     map[string]struct{}
	group        singleflight.Group
	now          func() time.Time
	logger       Logger
	activitySink ActivitySink
}

// NewLedger returns an empty, unbound ledger. Bind is called by the session
// manager on every transition into Authenticated.
func NewLedger(issuer CredentialIssuer, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		issuer:       issuer,
		inflight:     map[string]struct{}{},
		now:          time.Now,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// Bind scopes the ledger to the given bearer token, replacing any previous
// binding and invalidating in-flight mutations against the old session.
func (l *Ledger) Bind(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.token = token
	l.items = nil
	l.generation++
}

// Clear empties the ledger and unbinds it. Responses of requests still in
// flight are discarded when they land.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.token = ""
	l.items = nil
	l.generation++
}

// UnreadCount derives the unread total from the current set.
func (l *Ledger) UnreadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unreadLocked()
}

// All returns a snapshot copy of the current notification set.
func (l *Ledger) All() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notification, len(l.items))
	copy(out, l.items)
	return out
}

// Refresh replaces the entire set with the issuer's current snapshot and
// recomputes the unread count from scratch. Concurrent calls collapse into a
// single fetch. On failure the previous state is left untouched and the
// failure is reported to the caller.
func (l *Ledger) Refresh(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	generation := l.generation
	l.mu.Unlock()

	if token == "" {
		return ErrNotAuthenticated
	}

	_, err, _ := l.group.Do("refresh", func() (any, error) {
		items, err := l.issuer.Notifications(ctx, token)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "notification refresh failed")
		}

		l.mu.Lock()
		if l.generation != generation {
			// The session changed while the fetch was in flight; the snapshot
			// belongs to state that no longer exists.
			l.mu.Unlock()
			return nil, nil
		}
		l.items = make([]Notification, len(items))
		copy(l.items, items)
		// A snapshot fetched before the server processed an in-flight read
		// confirmation still carries the entry as unread; re-apply the
		// optimistic flip so a read entry never reverts.
		for id := range l.inflight {
			if idx := l.indexLocked(id); idx >= 0 {
				l.items[idx].IsRead = true
			}
		}
		unread := l.unreadLocked()
		l.mu.Unlock()

		l.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventNotificationsRefreshed,
			Metadata: map[string]any{
				"total":  len(items),
				"unread": unread,
			},
		})
		return nil, nil
	})

	return err
}

// MarkRead optimistically flips the entry to read, then confirms with the
// issuer. On confirmation failure the entry and the derived count roll back
// and the error is surfaced. Marking an already-read id, or an id whose
// confirmation is still in flight, is a no-op: each id decrements the unread
// count at most once.
func (l *Ledger) MarkRead(ctx context.Context, id string) error {
	l.mu.Lock()
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return ErrNotificationNotFound.WithMetadata(map[string]any{"id": id})
	}
	if l.items[idx].IsRead {
		l.mu.Unlock()
		return nil
	}
	if _, busy := l.inflight[id]; busy {
		l.mu.Unlock()
		return nil
	}

	l.items[idx].IsRead = true
	l.inflight[id] = struct{}{}
	token := l.token
	generation := l.generation
	unread := l.unreadLocked()
	l.mu.Unlock()

	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventNotificationRead,
		Metadata: map[string]any{
			"id":     id,
			"unread": unread,
		},
	})

	err := l.issuer.MarkNotificationRead(ctx, token, id)

	l.mu.Lock()
	delete(l.inflight, id)
	if l.generation != generation {
		// The set was replaced or cleared mid-flight; there is nothing left
		// to confirm or roll back.
		l.mu.Unlock()
		return nil
	}
	if err != nil {
		if idx := l.indexLocked(id); idx >= 0 {
			l.items[idx].IsRead = false
		}
		unread = l.unreadLocked()
		l.mu.Unlock()

		l.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventNotificationRollback,
			Metadata: map[string]any{
				"id":     id,
				"unread": unread,
				"error":  err.Error(),
			},
		})
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to confirm notification read")
	}
	l.mu.Unlock()

	return nil
}

func (l *Ledger) unreadLocked() int {
	count := 0
	for i := range l.items {
		if !l.items[i].IsRead {
			count++
		}
	}
	return count
}

func (l *Ledger) indexLocked(id string) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = l.now()
	}

	sink := normalizeActivitySink(l.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		l.logger.Warn("notification ledger activity sink error: %v", err)
	}
}
