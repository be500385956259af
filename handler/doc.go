// Package handler exposes the session lifecycle over HTTP.
//
// Session wraps a lifecycle.Controller with JSON endpoints for the explicit
// operations (validate, extend, logout, status). Hub pushes the lifecycle's
// user-facing notifications (expiry warning, forced logout) to connected
// clients over websockets, implementing lifecycle.Notifier:
//
//	hub := handler.NewHub(log)
//	ctrl, _ := lifecycle.New(store, lifecycle.WithNotifier(hub))
//
//	mux := http.NewServeMux()
//	handler.NewSession(ctrl).Register(mux)
//	mux.Handle("GET /session/events", hub)
package handler
