package blogify

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the persisted client state: an opaque bearer token plus the
// issuer-confirmed identity it belongs to. The identity is never trusted
// without a non-empty token.
type Session struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

// Valid reports whether the session can back an authenticated state.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User != nil
}

// Expired inspects the token's exp claim when the token happens to be a JWT.
// Opaque tokens never expire locally; the issuer stays authoritative and
// rejects them server-side when stale.
func (s *Session) Expired(now time.Time) bool {
	if !s.Valid() {
		return true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Time.Before(now)
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	return &Session{
		Token: s.Token,
		User:  s.User.clone(),
	}
}

// Role returns the identity's role, or RoleUser when the session cannot back
// one. Roles arrive verbatim from the issuer.
func (s *Session) Role() UserRole {
	if !s.Valid() {
		return RoleUser
	}
	if role, ok := ParseRole(string(s.User.Role)); ok {
		return role
	}
	return RoleUser
}
