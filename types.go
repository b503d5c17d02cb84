package blogify

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialIssuer is the backend contract the session lifecycle depends on.
// The issuer validates signup payloads, checks OTP codes, verifies
// credentials, and owns the notification set. It is the authoritative
// security boundary; this package never derives auth facts locally.
type CredentialIssuer interface {
	Signup(ctx context.Context, payload SignupPayload) (string, error)
	VerifyOTP(ctx context.Context, email, code string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Notifications(ctx context.Context, token string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, token, id string) error
}

// AdminAPI exposes the admin-only dashboard endpoint. Kept separate from
// CredentialIssuer so non-admin surfaces never depend on it.
type AdminAPI interface {
	AdminDashboard(ctx context.Context, token string) (*AdminDashboard, error)
}

// SessionStore durably persists the current session across process restarts.
// It is not a security boundary: the issuer re-validates the token on every
// privileged request.
type SessionStore interface {
	// Load returns the persisted session, or nil when absent. A malformed
	// record is treated as absent and discarded, never an error.
	Load(ctx context.Context) (*Session, error)
	// Save persists token and identity together; a partially written record
	// must never be observable by Load.
	Save(ctx context.Context, session *Session) error
	// Clear removes all persisted session data. Idempotent.
	Clear(ctx context.Context) error
}

// NoopLogger discards all log output. Useful as a default for components
// whose caller did not wire a logger.
type NoopLogger struct{}

func (NoopLogger) Error(format string, args ...any) {}
func (NoopLogger) Warn(format string, args ...any)  {}
func (NoopLogger) Info(format string, args ...any)  {}
func (NoopLogger) Debug(format string, args ...any) {}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] BLOGIFY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] BLOGIFY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] BLOGIFY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] BLOGIFY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
