package blogify

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// State identifies where in the identity lifecycle the visitor currently is.
type State string

const (
	StateAnonymous           State = "anonymous"
	StatePendingVerification State = "pending_verification"
	StateAuthenticated       State = "authenticated"
)

// SessionManagerOption customizes session manager construction.
type SessionManagerOption func(*SessionManager)

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) SessionManagerOption {
	return func(sm *SessionManager) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithLogger overrides the logger used for sink and store failures.
func WithLogger(logger Logger) SessionManagerOption {
	return func(sm *SessionManager) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish lifecycle events.
func WithActivitySink(sink ActivitySink) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithLedger attaches the notification ledger whose lifecycle follows the
// authenticated state: bound and refreshed on every transition into
// Authenticated, cleared on every transition out.
func WithLedger(ledger *Ledger) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.ledger = ledger
	}
}

// SessionManager governs the identity lifecycle: Anonymous to
// PendingVerification to Authenticated, with the session store as the single
// durable record and the credential issuer as the source of every auth fact.
// It is the sole writer of the session store.
type SessionManager struct {
	mu           sync.Mutex
	issuer       CredentialIssuer
	store        SessionStore
	ledger       *Ledger
	state        State
	session      *Session
	pendingEmail string
	epoch        uint64
	transitions  map[State]map[State]struct{}
	now          func() time.Time
	logger       Logger
	activitySink ActivitySink
}

// NewSessionManager returns a manager in the Anonymous state. Call Start to
// rehydrate any persisted session.
func NewSessionManager(issuer CredentialIssuer, store SessionStore, opts ...SessionManagerOption) *SessionManager {
	sm := &SessionManager{
		issuer: issuer,
		store:  store,
		state:  StateAnonymous,
		transitions: map[State]map[State]struct{}{
			StateAnonymous: {
				StatePendingVerification: {},
				StateAuthenticated:       {},
			},
			StatePendingVerification: {
				StatePendingVerification: {},
				StateAuthenticated:       {},
				StateAnonymous:           {},
			},
			StateAuthenticated: {
				StateAnonymous: {},
			},
		},
		now:          time.Now,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

// State returns the current lifecycle state.
func (sm *SessionManager) State() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// Current returns a snapshot of the authenticated session, or nil.
func (sm *SessionManager) Current() *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.session.clone()
}

// Identity returns the authenticated identity, or false.
func (sm *SessionManager) Identity() (*Identity, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.state != StateAuthenticated || !sm.session.Valid() {
		return nil, false
	}
	return sm.session.User.clone(), true
}

// PendingEmail returns the address awaiting OTP confirmation, or empty. The
// pending email lives in memory only and does not survive a restart.
func (sm *SessionManager) PendingEmail() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.pendingEmail
}

// Start initializes the state from the session store: Authenticated if a
// usable session is found, Anonymous otherwise. A persisted token that has
// locally expired is cleared and treated as absent. A pending signup is
// never persisted, so a restart during the OTP window lands on Anonymous.
func (sm *SessionManager) Start(ctx context.Context) error {
	session, err := sm.store.Load(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load persisted session")
	}

	if session == nil {
		return nil
	}

	if !session.Valid() || session.Expired(sm.now()) {
		if err := sm.store.Clear(ctx); err != nil {
			sm.logger.Warn("failed to clear stale session: %v", err)
		}
		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventSessionDiscarded,
			FromState: StateAnonymous,
			ToState:   StateAnonymous,
			Email:     session.emailOrEmpty(),
		})
		return nil
	}

	sm.mu.Lock()
	sm.state = StateAuthenticated
	sm.session = session
	sm.epoch++
	sm.mu.Unlock()

	sm.bindLedger(ctx, session.Token)

	sm.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSessionRestored,
		UserID:    session.User.ID,
		Email:     session.User.Email,
		FromState: StateAnonymous,
		ToState:   StateAuthenticated,
	})

	return nil
}

// Signup submits an account creation request. On issuer acceptance the state
// moves to PendingVerification carrying the email; on rejection the state is
// unchanged and a validation error is returned. Returns the issuer's
// confirmation message.
func (sm *SessionManager) Signup(ctx context.Context, payload SignupPayload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", ErrValidation.WithMetadata(map[string]any{
			"validation": err.Error(),
		})
	}

	sm.mu.Lock()
	if !sm.canTransition(sm.state, StatePendingVerification) {
		from := sm.state
		sm.mu.Unlock()
		return "", ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   StatePendingVerification,
		})
	}
	epoch := sm.epoch
	sm.mu.Unlock()

	message, err := sm.issuer.Signup(ctx, payload)
	if err != nil {
		return "", err
	}

	sm.mu.Lock()
	if sm.epoch != epoch || !sm.canTransition(sm.state, StatePendingVerification) {
		// The lifecycle moved on while the request was in flight; the
		// acceptance no longer applies to any live signup flow.
		sm.mu.Unlock()
		sm.logger.Debug("discarding stale signup acceptance for %s", payload.Email)
		return message, nil
	}
	from := sm.state
	sm.state = StatePendingVerification
	sm.pendingEmail = payload.Email
	sm.mu.Unlock()

	sm.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSignupPending,
		Email:     payload.Email,
		FromState: from,
		ToState:   StatePendingVerification,
	})

	return message, nil
}

// VerifyOTP confirms the pending signup with the emailed code. On issuer
// confirmation the state becomes Authenticated with a persisted session; on
// a wrong or expired code the state stays PendingVerification so the code
// can be retried.
func (sm *SessionManager) VerifyOTP(ctx context.Context, code string) error {
	sm.mu.Lock()
	if sm.state != StatePendingVerification || sm.pendingEmail == "" {
		sm.mu.Unlock()
		return ErrPendingSignupRequired
	}
	email := sm.pendingEmail
	epoch := sm.epoch
	sm.mu.Unlock()

	payload := VerifyOTPPayload{Email: email, Code: code}
	if err := payload.Validate(); err != nil {
		return ErrInvalidOTP.WithMetadata(map[string]any{
			"validation": err.Error(),
		})
	}

	session, err := sm.issuer.VerifyOTP(ctx, email, code)
	if err != nil {
		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventVerifyFailure,
			Email:     email,
			FromState: StatePendingVerification,
			ToState:   StatePendingVerification,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return err
	}

	if !staleCheck(sm, epoch, StatePendingVerification) {
		// Confirmation arrived after the pending signup was abandoned or the
		// process state was replaced. Discard without touching live state.
		sm.logger.Debug("discarding stale OTP confirmation for %s", email)
		return ErrPendingSignupRequired
	}

	if err := sm.establishSession(ctx, session, ActivityEventVerifySuccess, &epoch); err != nil {
		return err
	}

	return nil
}

// Login authenticates with email and password, bypassing OTP. A login issued
// from PendingVerification abandons the pending signup. On rejection the
// prior state is unchanged.
func (sm *SessionManager) Login(ctx context.Context, payload LoginPayload) error {
	if err := payload.Validate(); err != nil {
		return ErrValidation.WithMetadata(map[string]any{
			"validation": err.Error(),
		})
	}

	sm.mu.Lock()
	if !sm.canTransition(sm.state, StateAuthenticated) {
		from := sm.state
		sm.mu.Unlock()
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   StateAuthenticated,
		})
	}
	sm.mu.Unlock()

	session, err := sm.issuer.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		sm.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Email:     payload.Email,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return err
	}

	// No epoch guard: a login response racing a logout is intentionally
	// last-write-wins in a single-user interactive context.
	if err := sm.establishSession(ctx, session, ActivityEventLoginSuccess, nil); err != nil {
		return err
	}

	return nil
}

// Logout always succeeds: it clears the session store, the notification
// ledger, and any pending signup, returning the lifecycle to Anonymous.
func (sm *SessionManager) Logout(ctx context.Context) {
	sm.mu.Lock()
	from := sm.state
	session := sm.session
	sm.state = StateAnonymous
	sm.session = nil
	sm.pendingEmail = ""
	sm.epoch++
	sm.mu.Unlock()

	if sm.ledger != nil {
		sm.ledger.Clear()
	}

	if err := sm.store.Clear(ctx); err != nil {
		sm.logger.Warn("failed to clear session store on logout: %v", err)
	}

	event := ActivityEvent{
		EventType: ActivityEventLogout,
		FromState: from,
		ToState:   StateAnonymous,
	}
	if session.Valid() {
		event.UserID = session.User.ID
		event.Email = session.User.Email
	}
	sm.recordActivity(ctx, event)
}

// Invalidate drops the current session after the issuer rejected its token.
// Same teardown as Logout, surfaced separately for auditing.
func (sm *SessionManager) Invalidate(ctx context.Context) {
	sm.mu.Lock()
	from := sm.state
	session := sm.session
	sm.state = StateAnonymous
	sm.session = nil
	sm.pendingEmail = ""
	sm.epoch++
	sm.mu.Unlock()

	if sm.ledger != nil {
		sm.ledger.Clear()
	}

	if err := sm.store.Clear(ctx); err != nil {
		sm.logger.Warn("failed to clear session store on invalidation: %v", err)
	}

	event := ActivityEvent{
		EventType: ActivityEventSessionDiscarded,
		FromState: from,
		ToState:   StateAnonymous,
	}
	if session.Valid() {
		event.UserID = session.User.ID
		event.Email = session.User.Email
	}
	sm.recordActivity(ctx, event)
}

// establishSession persists and installs an issuer-granted session. A
// non-nil fromEpoch makes the flip conditional: if the lifecycle moved past
// that epoch while the record was being persisted, the flip is abandoned and
// the store is put back the way the winner left it.
func (sm *SessionManager) establishSession(ctx context.Context, session *Session, event ActivityEventType, fromEpoch *uint64) error {
	if !session.Valid() {
		return goerrors.New("issuer returned an incomplete session", goerrors.CategoryInternal)
	}

	if _, ok := ParseRole(string(session.User.Role)); !ok {
		return goerrors.New("issuer returned an unknown role", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"role": session.User.Role})
	}

	// Persist before flipping state: a failed write must not leave a live
	// session the next start cannot rehydrate.
	if err := sm.store.Save(ctx, session); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to persist session")
	}

	sm.mu.Lock()
	if fromEpoch != nil && sm.epoch != *fromEpoch {
		state := sm.state
		live := sm.session.clone()
		sm.mu.Unlock()

		if state == StateAuthenticated && live.Valid() {
			// A competing login won the slot; restore its record.
			if err := sm.store.Save(ctx, live); err != nil {
				sm.logger.Warn("failed to restore winning session record: %v", err)
			}
		} else if err := sm.store.Clear(ctx); err != nil {
			sm.logger.Warn("failed to discard stale session record: %v", err)
		}

		sm.logger.Debug("discarding stale session for %s", session.emailOrEmpty())
		return ErrPendingSignupRequired
	}
	from := sm.state
	sm.state = StateAuthenticated
	sm.session = session.clone()
	sm.pendingEmail = ""
	sm.epoch++
	sm.mu.Unlock()

	sm.bindLedger(ctx, session.Token)

	sm.recordActivity(ctx, ActivityEvent{
		EventType: event,
		UserID:    session.User.ID,
		Email:     session.User.Email,
		FromState: from,
		ToState:   StateAuthenticated,
	})

	return nil
}

func (sm *SessionManager) bindLedger(ctx context.Context, token string) {
	if sm.ledger == nil {
		return
	}

	sm.ledger.Bind(token)
	if err := sm.ledger.Refresh(ctx); err != nil {
		// Initialization is best effort: an unreachable notification endpoint
		// must not block the login itself.
		sm.logger.Warn("initial notification refresh failed: %v", err)
	}
}

func (sm *SessionManager) canTransition(from, to State) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *SessionManager) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("session manager activity sink error: %v", err)
	}
}

func staleCheck(sm *SessionManager, epoch uint64, state State) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.epoch == epoch && sm.state == state
}

func (s *Session) emailOrEmpty() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Email
}
