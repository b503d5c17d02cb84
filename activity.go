package blogify

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSignupPending    ActivityEventType = "auth.signup.pending"
	ActivityEventVerifySuccess    ActivityEventType = "auth.verify.success"
	ActivityEventVerifyFailure    ActivityEventType = "auth.verify.failure"
	ActivityEventLoginSuccess     ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure     ActivityEventType = "auth.login.failure"
	ActivityEventLogout           ActivityEventType = "auth.logout"
	ActivityEventSessionRestored  ActivityEventType = "auth.session.restored"
	ActivityEventSessionDiscarded ActivityEventType = "auth.session.discarded"

	ActivityEventNotificationsRefreshed ActivityEventType = "notification.refreshed"
	ActivityEventNotificationRead       ActivityEventType = "notification.read"
	ActivityEventNotificationRollback   ActivityEventType = "notification.read.rollback"
)

// ActivityEvent captures information about a lifecycle or notification
// action. UI layers subscribe to these instead of polling component state.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	FromState  State
	ToState    State
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for badges, telemetry, or audit.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
