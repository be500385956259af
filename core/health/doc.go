// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: process is running (no dependency checks)
//   - Readiness: all dependencies are available
//   - NoContent: returns 204 for minimal overhead
//
// Usage:
//
//	mux.Handle("GET /health/live", health.Liveness())
//	mux.Handle("GET /health/ready", health.Readiness(
//		logger,
//		redis.Healthcheck(client),
//		pg.Healthcheck(pool),
//	))
//	mux.Handle("GET /ping", health.NoContent())
//
// Dependency checks follow the func(context.Context) error signature.
package health
