package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/lifecycle"
)

// Session exposes the controller's explicit operations as JSON endpoints.
type Session struct {
	ctrl *lifecycle.Controller
}

// NewSession creates the HTTP surface for a controller.
func NewSession(ctrl *lifecycle.Controller) *Session {
	return &Session{ctrl: ctrl}
}

// Register mounts the session routes on the mux.
func (s *Session) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /session", s.Status)
	mux.HandleFunc("GET /session/validate", s.Validate)
	mux.HandleFunc("POST /session/extend", s.Extend)
	mux.HandleFunc("POST /session/logout", s.Logout)
}

type statusResponse struct {
	Authenticated bool   `json:"authenticated"`
	AccountID     string `json:"account_id,omitempty"`
	Username      string `json:"username,omitempty"`
	Slug          string `json:"slug,omitempty"`
	Phase         string `json:"phase"`
}

// Status reports the local session snapshot and the current phase. The session
// id itself never leaves the process.
func (s *Session) Status(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Cache().Snapshot()
	writeJSON(w, http.StatusOK, statusResponse{
		Authenticated: snap.Authenticated(),
		AccountID:     snap.AccountID,
		Username:      snap.Username,
		Slug:          snap.Slug,
		Phase:         s.ctrl.Phase().String(),
	})
}

// Validate runs the on-demand session check used on restore/reload.
func (s *Session) Validate(w http.ResponseWriter, r *http.Request) {
	valid := s.ctrl.Validate(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// Extend resets the idle countdown in response to an explicit "stay signed in".
func (s *Session) Extend(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Extend(r.Context()); err != nil {
		// The session stays valid locally; report the persistence failure.
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to persist activity"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "extended"})
}

// Logout performs a user-initiated logout and always succeeds.
func (s *Session) Logout(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
