package lifecycle

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionguard/core/session"
)

// Config holds session lifecycle configuration with environment variable support.
type Config struct {
	// Timeout is the idle duration after which a session expires.
	Timeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"30m"`

	// WarningWindow is how long before expiry the user is warned.
	// The warning threshold is Timeout - WarningWindow.
	WarningWindow time.Duration `env:"SESSION_WARNING_WINDOW" envDefault:"5m"`

	// TickInterval is the period of the idle-time re-evaluation timer.
	TickInterval time.Duration `env:"SESSION_TICK_INTERVAL" envDefault:"1m"`

	// TouchInterval throttles activity writes to the store. Bursts of
	// activity within the interval produce at most one write.
	TouchInterval time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"1m"`

	// SignOutTimeout bounds the identity-provider sign-out call during cleanup.
	SignOutTimeout time.Duration `env:"SESSION_SIGNOUT_TIMEOUT" envDefault:"5s"`

	// LoginPath is where the Navigator redirects after any logout.
	LoginPath string `env:"SESSION_LOGIN_PATH" envDefault:"/signup"`

	// SignalBuffer sizes the controller's signal channel.
	SignalBuffer int `env:"SESSION_SIGNAL_BUFFER" envDefault:"64"`
}

// DefaultConfig returns a Config with the standard timing model:
// 30 minute timeout, 5 minute warning window, 1 minute tick.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Minute,
		WarningWindow:  5 * time.Minute,
		TickInterval:   time.Minute,
		TouchInterval:  time.Minute,
		SignOutTimeout: 5 * time.Second,
		LoginPath:      "/signup",
		SignalBuffer:   64,
	}
}

// Validate checks the timing model for consistency.
func (c Config) Validate() error {
	if c.Timeout <= 0 || c.TickInterval <= 0 || c.SignOutTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.WarningWindow <= 0 || c.WarningWindow >= c.Timeout {
		return ErrInvalidConfig
	}
	if c.TouchInterval < 0 || c.SignalBuffer <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig replaces the full configuration.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithTimeout sets the idle timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.cfg.Timeout = d
	}
}

// WithWarningWindow sets how long before expiry the warning fires.
func WithWarningWindow(d time.Duration) Option {
	return func(c *Controller) {
		c.cfg.WarningWindow = d
	}
}

// WithTickInterval sets the timer period.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.cfg.TickInterval = d
	}
}

// WithTouchInterval sets the minimum time between persisted activity updates.
func WithTouchInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.cfg.TouchInterval = d
	}
}

// WithLoginPath sets the post-logout redirect target.
func WithLoginPath(path string) Option {
	return func(c *Controller) {
		if path != "" {
			c.cfg.LoginPath = path
		}
	}
}

// WithLogger configures structured logging for the controller and its
// signal sources.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithNotifier sets the UI-facing notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notify = n
		}
	}
}

// WithNavigator sets the navigation side-effect target.
func WithNavigator(n Navigator) Option {
	return func(c *Controller) {
		if n != nil {
			c.nav = n
		}
	}
}

// WithIdentityProvider sets the upstream provider to revoke on logout.
func WithIdentityProvider(p IdentityProvider) Option {
	return func(c *Controller) {
		if p != nil {
			c.idp = p
		}
	}
}

// WithLocalCache shares an externally owned local cache, e.g. one the UI
// layer also reads.
func WithLocalCache(cache *session.LocalCache) Option {
	return func(c *Controller) {
		if cache != nil {
			c.cache = cache
		}
	}
}
