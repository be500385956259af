// Package pg provides PostgreSQL connection management with migrations,
// health checking, and a PostgreSQL-backed session record store.
//
// Connect creates a pgxpool with exponential backoff retries and a ping
// verification. Migrate applies the embedded goose migrations through the
// database/sql compatibility layer. Healthcheck returns a
// func(context.Context) error for readiness probes.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, cfg, logger); err != nil {
//		log.Fatal(err)
//	}
//
// Store keeps one row per account in session_records and emits a pg_notify
// on every merge, which backs the remote invalidation watcher. Subscribers
// hold a dedicated listener connection since LISTEN binds to a physical
// connection and cannot be pooled.
//
//	store := pg.NewStore(pool, cfg)
//	ctrl, err := lifecycle.New(store)
//
// Store operations join a caller's transaction installed via WithTx.
package pg
