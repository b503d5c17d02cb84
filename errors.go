package blogify

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeValidation         = "blogify_validation_failed"
	TextCodeInvalidOTP         = "blogify_invalid_otp"
	TextCodeInvalidCredentials = "blogify_invalid_credentials"
	TextCodeForbidden          = "blogify_forbidden"
	TextCodeTransport          = "blogify_transport_failure"
	TextCodeNotAuthenticated   = "blogify_not_authenticated"
	TextCodeSessionExpired     = "blogify_session_expired"
	TextCodePendingSignup      = "blogify_pending_signup_required"
	TextCodeInvalidTransition  = "blogify_invalid_identity_transition"
	TextCodeNotificationGone   = "blogify_notification_not_found"
)

// ErrValidation is returned when a signup or login payload is rejected
// before any state change, locally or by the issuer.
var ErrValidation = errors.New("payload validation failed", errors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(errors.CodeBadRequest)

// ErrInvalidOTP is returned for a wrong or expired verification code. The
// identity stays in PendingVerification so the code can be retried.
var ErrInvalidOTP = errors.New("invalid or expired verification code", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidOTP).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is returned when the issuer rejects a login.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated identity attempts a
// privileged action without sufficient role.
var ErrForbidden = errors.New("insufficient privileges", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrTransport is returned when the issuer is unreachable or fails. The
// triggering action is safe to retry; no local state changed.
var ErrTransport = errors.New("credential issuer unreachable", errors.CategoryOperation).
	WithTextCode(TextCodeTransport).
	WithCode(errors.CodeInternal)

// ErrNotAuthenticated is returned for operations that require an
// authenticated session.
var ErrNotAuthenticated = errors.New("no authenticated session", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrSessionExpired is returned when a persisted or presented token is no
// longer accepted.
var ErrSessionExpired = errors.New("session expired", errors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(errors.CodeUnauthorized)

// ErrPendingSignupRequired is returned when VerifyOTP is called without a
// pending signup to verify.
var ErrPendingSignupRequired = errors.New("no signup pending verification", errors.CategoryConflict).
	WithTextCode(TextCodePendingSignup).
	WithCode(errors.CodeConflict)

// ErrInvalidTransition is returned when an operation is not legal from the
// current identity state.
var ErrInvalidTransition = errors.New("invalid identity state transition", errors.CategoryConflict).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(errors.CodeConflict)

// ErrNotificationNotFound is returned by MarkRead for an id that is not in
// the current ledger snapshot.
var ErrNotificationNotFound = errors.New("notification not found", errors.CategoryNotFound).
	WithTextCode(TextCodeNotificationGone).
	WithCode(errors.CodeNotFound)

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}

// IsValidationError reports whether err is a payload rejection.
func IsValidationError(err error) bool { return hasTextCode(err, TextCodeValidation) }

// IsOTPError reports whether err is a wrong or expired verification code.
func IsOTPError(err error) bool { return hasTextCode(err, TextCodeInvalidOTP) }

// IsAuthError reports whether err is a credential rejection.
func IsAuthError(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials) || hasTextCode(err, TextCodeSessionExpired)
}

// IsForbidden reports whether err is a privilege rejection.
func IsForbidden(err error) bool { return hasTextCode(err, TextCodeForbidden) }

// IsTransportError reports whether err is a retryable transport failure.
func IsTransportError(err error) bool { return hasTextCode(err, TextCodeTransport) }
