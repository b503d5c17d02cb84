package blogify

import (
	"github.com/goliatone/go-router"
)

// Requirement is the access level a route declares.
type Requirement int

const (
	// RequireNone marks a public route.
	RequireNone Requirement = iota
	// RequireAuthenticated admits any authenticated identity.
	RequireAuthenticated
	// RequireAdmin marks an admin surface. Navigation is still allowed for
	// authenticated non-admins: the gate is advisory and the issuer rejects
	// each privileged action with a forbidden error.
	RequireAdmin
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Target  string
}

// Allow admits the navigation.
var Allow = Decision{Allowed: true}

// RedirectTo denies the navigation and names where to send the visitor.
func RedirectTo(target string) Decision {
	return Decision{Target: target}
}

// GuardOption customizes guard construction.
type GuardOption func(*Guard)

// WithLoginPath overrides the redirect target for unauthenticated access.
func WithLoginPath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithGuardLogger overrides the guard's logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Guard derives, for any requested route, whether the current identity may
// proceed. Every check reads the session manager live; decisions are never
// cached, so a logout is reflected on the next navigation.
//
// Client-side gating is advisory only. The issuer independently authorizes
// every privileged request, which is why RequireAdmin still allows
// navigation for authenticated non-admins.
type Guard struct {
	manager   *SessionManager
	loginPath string
	logger    Logger
}

// NewGuard returns a guard bound to the manager's live state.
func NewGuard(manager *SessionManager, opts ...GuardOption) *Guard {
	g := &Guard{
		manager:   manager,
		loginPath: "/login",
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Authorize evaluates the requirement against the current identity state.
func (g *Guard) Authorize(required Requirement) Decision {
	if required == RequireNone {
		return Allow
	}

	if g.manager.State() != StateAuthenticated {
		return RedirectTo(g.loginPath)
	}

	if required == RequireAdmin {
		if identity, ok := g.manager.Identity(); ok && !identity.IsAdmin() {
			g.logger.Debug("allowing non-admin navigation to admin surface for %s", identity.Email)
		}
	}

	return Allow
}

// Middleware applies the guard's decision to HTTP navigation: redirect on
// denial, pass through with the identity in request locals on admission.
func (g *Guard) Middleware(required Requirement) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			decision := g.Authorize(required)
			if !decision.Allowed {
				return ctx.Redirect(decision.Target, router.StatusSeeOther)
			}

			if identity, ok := g.manager.Identity(); ok {
				ctx.Locals(IdentityLocalsKey, identity)
			}

			return next(ctx)
		}
	}
}
