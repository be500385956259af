// Package lifecycle decides, at any moment, whether a previously
// authenticated principal still holds a valid session. It enforces
// idle-timeout expiry, warns the user before expiry, and invalidates the
// session the instant the same account authenticates from another device.
//
// # State Machine
//
// The Controller moves through four phases:
//
//	Idle ──start()──▶ Monitoring ──idle ≥ warning threshold──▶ Warning
//	                      ▲                                       │
//	                      └───────activity / extend()─────────────┘
//
//	Monitoring/Warning ──expiry or divergence──▶ Terminating ──▶ Idle
//
// Three independent producers feed it: the ActivityMonitor (user interaction
// signals), the TimeoutSupervisor (periodic idle re-evaluation), and the
// RemoteWatcher (store change notifications). All of them push typed signals
// onto a single ordered channel drained by one goroutine, so no two
// transitions ever run concurrently.
//
// # Usage
//
//	ctrl, err := lifecycle.New(store,
//		lifecycle.WithLogger(log),
//		lifecycle.WithNotifier(notifier),
//		lifecycle.WithNavigator(nav),
//		lifecycle.WithIdentityProvider(provider),
//	)
//	if err != nil {
//		return err
//	}
//
//	// After the identity provider authenticates the principal:
//	sessionID, err := ctrl.StartSession(ctx, accountID, device)
//	...
//	if ctrl.Validate(ctx) {
//		_ = ctrl.Start(ctx)
//	}
//
// User interaction flows in through the monitor:
//
//	ctrl.Monitor().Report(lifecycle.ActivityPointer)
//
// # Error Policy
//
// Store and transport failures are logged and non-fatal: the session stays
// in its current phase and a later tick retries naturally. Only confirmed
// data divergence and idle expiry terminate a session, and both always
// surface a human-readable reason followed by a navigation side effect.
package lifecycle
