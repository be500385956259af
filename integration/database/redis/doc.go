// Package redis provides Redis client initialization, health checking, and a
// Redis-backed session record store with cross-device change notification.
//
// Connect creates a client with URL validation, exponential backoff retries,
// and a ping verification:
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// Store persists one session record per account as JSON and publishes every
// merge on a per-account pub/sub channel, which backs the remote invalidation
// watcher: a login on device A is pushed to device B without polling.
//
//	store := redis.NewStore(client, cfg)
//	ctrl, err := lifecycle.New(store)
//
// Healthcheck returns a func(context.Context) error for readiness probes.
//
// Errors are wrapped in package sentinels (ErrRedisNotReady,
// ErrFailedToParseRedisConnString, ...) and checked with errors.Is().
package redis
