package blogify

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds the client's environment-sourced settings.
type Config struct {
	// BaseURL is the root of the Blogify REST backend.
	BaseURL string `env:"BLOGIFY_API_URL" envDefault:"http://localhost:8000/api"`
	// SessionPath is where the durable session record lives. Empty selects
	// a per-user default under the OS config directory.
	SessionPath string `env:"BLOGIFY_SESSION_FILE"`
	// RequestTimeout bounds each issuer request.
	RequestTimeout time.Duration `env:"BLOGIFY_TIMEOUT" envDefault:"10s"`
	Debug          bool          `env:"BLOGIFY_DEBUG" envDefault:"false"`
}

// LoadConfig reads the configuration from the environment and resolves
// defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to parse environment")
	}

	if cfg.SessionPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		cfg.SessionPath = filepath.Join(dir, "blogify", "session.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, ErrValidation.WithMetadata(map[string]any{
			"validation": err.Error(),
		})
	}

	return cfg, nil
}

// Stack groups the collaborating pieces an embedding application works
// with: the session manager, the guard reading it, and the notification
// ledger bound to it.
type Stack struct {
	Manager *SessionManager
	Guard   *Guard
	Ledger  *Ledger
}

// NewStack assembles a ledger, session manager, and guard around the given
// issuer and session store. Concrete issuer and store implementations live
// in the rest and store subpackages; callers needing per-piece options can
// wire the pieces individually instead.
func NewStack(issuer CredentialIssuer, sessions SessionStore, opts ...SessionManagerOption) *Stack {
	ledger := NewLedger(issuer)
	opts = append(opts, WithLedger(ledger))
	manager := NewSessionManager(issuer, sessions, opts...)

	return &Stack{
		Manager: manager,
		Guard:   NewGuard(manager),
		Ledger:  ledger,
	}
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.SessionPath, validation.Required),
	)
}
