package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionguard/core/logger"
	"github.com/dmitrymomot/sessionguard/core/session"
	"github.com/dmitrymomot/sessionguard/pkg/async"
)

// Controller is the session lifecycle state machine. It consumes signals
// from the activity monitor, the timeout supervisor, and the remote watcher,
// plus explicit API calls, and drives all transitions and side effects.
//
// Construct exactly one Controller per running client process and pass it by
// reference to whatever layer needs it. All transitions are serialized: a
// transition completes, including its side effects, before the next signal
// is processed.
type Controller struct {
	cfg    Config
	store  session.RecordStore
	cache  *session.LocalCache
	idp    IdentityProvider
	nav    Navigator
	notify Notifier
	log    *slog.Logger
	clock  func() time.Time

	monitor    *ActivityMonitor
	supervisor *TimeoutSupervisor
	watcher    *RemoteWatcher

	// signals is created once and never reassigned, so producers may send
	// without holding mu.
	signals chan signal

	mu           sync.Mutex
	phase        Phase
	warningShown bool
	terminating  bool
	lastPersist  time.Time
	cancelRun    context.CancelFunc
}

// New creates a controller over the given record store.
func New(store session.RecordStore, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	c := &Controller{
		cfg:    DefaultConfig(),
		store:  store,
		cache:  session.NewLocalCache(),
		idp:    NoopIdentityProvider{},
		notify: NotifierFuncs{},
		log:    logger.Discard(),
		clock:  time.Now,
		phase:  PhaseIdle,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	c.signals = make(chan signal, c.cfg.SignalBuffer)
	c.monitor = newActivityMonitor(c.cache, c.clock)
	c.supervisor = NewTimeoutSupervisor(c.cfg.Timeout, c.cfg.WarningWindow, c.cfg.TickInterval, c.clock, c.onTick)
	c.watcher = NewRemoteWatcher(c.store, c.log)
	return c, nil
}

// Cache exposes the process-local session cache shared with the UI layer.
func (c *Controller) Cache() *session.LocalCache { return c.cache }

// Monitor exposes the activity monitor for the UI layer to report into.
func (c *Controller) Monitor() *ActivityMonitor { return c.monitor }

// Phase returns the current state machine phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// StartSession bootstraps a fresh login: generates a new session id, installs
// it as the authoritative one in the store, and seeds the local cache. The
// previous session of this account, on any device, is superseded.
func (c *Controller) StartSession(ctx context.Context, accountID string, device session.DeviceInfo) (string, error) {
	if accountID == "" {
		return "", session.ErrMissingAccountID
	}

	id, err := session.NewSessionID()
	if err != nil {
		return "", err
	}

	now := c.clock()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Seed the cache before the store write: the merge notifies subscribers,
	// and this process's own watcher must compare the new record against the
	// fresh local id, not the superseded one.
	prev := c.cache.Snapshot()
	c.cache.SetLogin(accountID, id, now)

	if err := c.store.Merge(ctx, accountID, session.LoginPatch(id, now, device)); err != nil {
		c.cache.SetLogin(prev.AccountID, prev.SessionID, prev.LastActivity)
		return "", errors.Join(ErrStartSession, err)
	}

	c.lastPersist = now

	c.log.InfoContext(ctx, "session started",
		logger.Component("lifecycle"),
		logger.AccountID(accountID),
		logger.SessionID(id),
	)

	// A login while already monitoring rewires the subscription and timers
	// to the new session, so the previous account's channel is not left
	// watched against the new cache.
	if c.phase != PhaseIdle {
		c.releaseLocked()
		c.phase = PhaseIdle
		if err := c.startLocked(ctx); err != nil {
			return id, err
		}
	}
	return id, nil
}

// Start begins monitoring the current login: subscribes to remote record
// changes, arms the timeout timer and the activity listener, and launches
// the serialized signal loop. Calling Start while already monitoring is a
// no-op, as is calling it without an authenticated local cache (the caller
// is expected to have redirected to the login flow).
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx)
}

func (c *Controller) startLocked(ctx context.Context) error {
	if c.phase != PhaseIdle {
		return nil
	}

	snap := c.cache.Snapshot()
	if !snap.Authenticated() {
		c.log.DebugContext(ctx, "start skipped: no authenticated session",
			logger.Component("lifecycle"))
		return nil
	}

	c.warningShown = false
	c.lastPersist = time.Time{}
	c.drainSignals()

	if err := c.watcher.Watch(ctx, snap.AccountID, c.localSessionID, c.onInvalidated); err != nil {
		// Subscribe failures are transport errors: monitoring continues on
		// the timer alone, which re-checks divergence every tick.
		c.log.ErrorContext(ctx, "failed to subscribe to session changes",
			logger.Error(err),
			logger.Component("lifecycle"),
			logger.AccountID(snap.AccountID),
		)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancelRun = cancel
	go c.run(runCtx)

	c.supervisor.Start()
	c.monitor.arm(c.onActivity)
	c.phase = PhaseMonitoring

	c.log.InfoContext(ctx, "session monitoring started",
		logger.Component("lifecycle"),
		logger.AccountID(snap.AccountID),
		logger.SessionID(snap.SessionID),
	)
	return nil
}

// Stop releases the subscription, timer, and activity listener without
// touching session state. Callable from any phase, any number of times.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
	c.phase = PhaseIdle
	c.warningShown = false
}

// Validate is the on-demand check used before trusting a restored session,
// e.g. on page reload. It returns false if no record exists, if the remote
// session id diverged (forcing logout), or if idle time already exceeds the
// timeout (forcing logout). Otherwise it refreshes activity and returns true.
func (c *Controller) Validate(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.cache.Snapshot()
	if !snap.Authenticated() {
		return false
	}

	now := c.clock()
	rec, err := c.store.Get(ctx, snap.AccountID)
	switch {
	case errors.Is(err, session.ErrRecordNotFound):
		// Nothing remote to revoke; drop local state and let the caller
		// redirect to the login flow.
		c.cache.Clear()
		c.releaseLocked()
		c.phase = PhaseIdle
		return false
	case err != nil:
		// Transport errors never invalidate a session on their own.
		c.log.ErrorContext(ctx, "session validation read failed",
			logger.Error(err),
			logger.Component("lifecycle"),
			logger.AccountID(snap.AccountID),
		)
		return true
	}

	if !rec.Matches(snap.SessionID) {
		c.terminateLocked(ctx, ReasonInvalidated, true)
		return false
	}

	last := snap.LastActivity
	if rec.LastActivity.After(last) {
		last = rec.LastActivity
	}
	if verdict, _ := c.supervisor.Check(last, now); verdict == VerdictExpire {
		c.terminateLocked(ctx, ReasonExpired, true)
		return false
	}

	c.cache.Touch(now)
	if err := c.store.Merge(ctx, snap.AccountID, session.TouchPatch(now)); err != nil {
		c.log.ErrorContext(ctx, "failed to refresh activity",
			logger.Error(err),
			logger.Component("lifecycle"),
		)
	} else {
		c.lastPersist = now
	}
	return true
}

// Extend clears the warning flag and refreshes activity. A store write
// failure is returned for observability, but the session remains valid
// locally; store failures never force a logout by themselves.
func (c *Controller) Extend(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.cache.Snapshot()
	if !snap.Authenticated() {
		return nil
	}

	now := c.clock()
	c.warningShown = false
	if c.phase == PhaseWarning {
		c.phase = PhaseMonitoring
	}
	c.cache.Touch(now)

	if err := c.store.Merge(ctx, snap.AccountID, session.TouchPatch(now)); err != nil {
		c.log.ErrorContext(ctx, "failed to extend session",
			logger.Error(err),
			logger.Component("lifecycle"),
			logger.AccountID(snap.AccountID),
		)
		return errors.Join(ErrUpdateActivity, err)
	}

	c.lastPersist = now
	return nil
}

// Logout performs a user-initiated logout: provider revocation, remote clear,
// local cleanup, handle release, and navigation. No reason banner is shown.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminateLocked(ctx, "", false)
}

// ---- signal producers ----

func (c *Controller) onActivity(at time.Time) {
	c.send(signal{kind: sigActivity, at: at})
}

func (c *Controller) onTick(at time.Time) {
	c.send(signal{kind: sigTick, at: at})
}

func (c *Controller) onInvalidated(rec session.Record) {
	c.send(signal{kind: sigRemote, at: c.clock(), record: rec})
}

func (c *Controller) localSessionID() string {
	return c.cache.Snapshot().SessionID
}

func (c *Controller) send(sig signal) {
	select {
	case c.signals <- sig:
	default:
		// Dropping is safe: activity and ticks are recurring, and a lost
		// divergence notification is caught by the next tick's record read.
		c.log.Warn("signal buffer full, signal dropped",
			logger.Component("lifecycle"))
	}
}

func (c *Controller) drainSignals() {
	for {
		select {
		case <-c.signals:
		default:
			return
		}
	}
}

// ---- serialized event loop ----

func (c *Controller) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-c.signals:
			c.handle(ctx, sig)
		}
	}
}

func (c *Controller) handle(ctx context.Context, sig signal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch sig.kind {
	case sigActivity:
		c.monitor.consumed()
		c.handleActivityLocked(ctx)
	case sigTick:
		c.handleTickLocked(ctx, sig.at)
	case sigRemote:
		c.handleRemoteLocked(ctx, sig.record)
	}
}

func (c *Controller) handleActivityLocked(ctx context.Context) {
	if c.phase != PhaseMonitoring && c.phase != PhaseWarning {
		return
	}

	now := c.clock()
	fromWarning := c.phase == PhaseWarning
	if fromWarning {
		c.phase = PhaseMonitoring
		c.warningShown = false
	}

	// Activity from the warning state always persists immediately so the
	// other devices see the revived session; normal activity is throttled.
	if fromWarning || now.Sub(c.lastPersist) >= c.cfg.TouchInterval {
		c.persistActivityLocked(ctx)
	}
}

func (c *Controller) persistActivityLocked(ctx context.Context) {
	snap := c.cache.Snapshot()
	if !snap.Authenticated() {
		return
	}

	// The cache holds the most recent signal timestamp, so a coalesced burst
	// never persists a stale earlier one.
	at := snap.LastActivity
	if at.IsZero() {
		at = c.clock()
	}

	if err := c.store.Merge(ctx, snap.AccountID, session.TouchPatch(at)); err != nil {
		c.log.ErrorContext(ctx, "failed to persist activity",
			logger.Error(err),
			logger.Component("lifecycle"),
			logger.AccountID(snap.AccountID),
		)
		return
	}
	c.lastPersist = c.clock()
}

func (c *Controller) handleTickLocked(ctx context.Context, now time.Time) {
	if c.phase != PhaseMonitoring && c.phase != PhaseWarning {
		return
	}

	snap := c.cache.Snapshot()
	if !snap.Authenticated() {
		return
	}

	last := snap.LastActivity
	rec, err := c.store.Get(ctx, snap.AccountID)
	switch {
	case err == nil:
		if !rec.Matches(snap.SessionID) {
			// Divergence surfaced by the periodic read covers a lost or
			// failed subscription.
			c.terminateLocked(ctx, ReasonInvalidated, true)
			return
		}
		// Use the later of persisted and local activity: clock drift or an
		// unflushed local burst must not cause premature expiry.
		if rec.LastActivity.After(last) {
			last = rec.LastActivity
		}
	case errors.Is(err, session.ErrRecordNotFound):
		c.log.WarnContext(ctx, "session record missing, using local activity",
			logger.Component("lifecycle"),
			logger.AccountID(snap.AccountID),
		)
	default:
		c.log.ErrorContext(ctx, "failed to read session record",
			logger.Error(err),
			logger.Component("lifecycle"),
			logger.AccountID(snap.AccountID),
		)
	}

	verdict, remaining := c.supervisor.Check(last, now)
	switch verdict {
	case VerdictExpire:
		c.terminateLocked(ctx, ReasonExpired, true)
	case VerdictWarn:
		if !c.warningShown {
			c.warningShown = true
			c.phase = PhaseWarning
			c.log.InfoContext(ctx, "session expiry warning",
				logger.Component("lifecycle"),
				logger.AccountID(snap.AccountID),
				logger.Remaining(remaining),
			)
			c.notify.SessionWarning(remaining)
		}
	case VerdictActive:
		// Another device's activity can pull us back out of the window.
		if c.phase == PhaseWarning {
			c.phase = PhaseMonitoring
			c.warningShown = false
		}
	}
}

func (c *Controller) handleRemoteLocked(ctx context.Context, rec session.Record) {
	if c.phase != PhaseMonitoring && c.phase != PhaseWarning {
		return
	}
	if rec.Matches(c.cache.Snapshot().SessionID) {
		return
	}
	c.terminateLocked(ctx, ReasonInvalidated, true)
}

// terminateLocked runs the logout sequence. The terminating guard makes
// concurrent or repeated fatal triggers no-ops until cleanup completes.
// Local state and handles are cleared even if the provider or store calls
// fail; cleanup is not conditional on remote success.
func (c *Controller) terminateLocked(ctx context.Context, reason string, forced bool) {
	if c.terminating {
		return
	}
	c.terminating = true
	c.phase = PhaseTerminating

	snap := c.cache.Snapshot()
	c.log.InfoContext(ctx, "terminating session",
		logger.Component("lifecycle"),
		logger.AccountID(snap.AccountID),
		logger.SessionID(snap.SessionID),
		logger.Reason(reason),
	)

	// (1) Revoke the identity-provider session, bounded so a hung provider
	// cannot block the rest of cleanup.
	soCtx, cancelSignOut := context.WithTimeout(ctx, c.cfg.SignOutTimeout)
	defer cancelSignOut()
	fut := async.Exec(soCtx, c.idp.SignOut)
	if err := fut.AwaitWithTimeout(c.cfg.SignOutTimeout); err != nil {
		c.log.ErrorContext(ctx, "identity provider sign-out failed",
			logger.Error(err),
			logger.Component("lifecycle"),
		)
	}

	// (2) Best-effort clear of the remote session id so a stale tab cannot
	// resurrect it. Only cleared while this device still owns the record;
	// a forced logout caused by a newer login must not wipe the winner's id.
	if snap.Authenticated() {
		cur, err := c.store.Get(ctx, snap.AccountID)
		if err == nil && cur.Matches(snap.SessionID) {
			if err := c.store.Merge(ctx, snap.AccountID, session.ClearPatch(c.clock())); err != nil {
				c.log.ErrorContext(ctx, "failed to clear remote session",
					logger.Error(err),
					logger.Component("lifecycle"),
					logger.AccountID(snap.AccountID),
				)
			}
		} else if err != nil && !errors.Is(err, session.ErrRecordNotFound) {
			c.log.ErrorContext(ctx, "failed to read record during cleanup",
				logger.Error(err),
				logger.Component("lifecycle"),
			)
		}
	}

	// (3) Local session state.
	c.cache.Clear()

	// (4) Subscription, timer, and activity listener.
	c.releaseLocked()

	// (5) Navigation away from the authenticated UI.
	if c.nav != nil {
		c.nav.Redirect(c.cfg.LoginPath)
	}

	// (6) Surface the reason on forced logout only.
	if forced && reason != "" {
		c.notify.ForcedLogout(reason)
	}

	c.phase = PhaseIdle
	c.terminating = false
}

func (c *Controller) releaseLocked() {
	c.monitor.disarm()
	c.supervisor.Stop()
	if err := c.watcher.Close(); err != nil {
		c.log.Error("failed to close session subscription",
			logger.Error(err),
			logger.Component("lifecycle"),
		)
	}
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
}
