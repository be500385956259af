package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/sessionguard/core/config"
	"github.com/dmitrymomot/sessionguard/core/health"
	"github.com/dmitrymomot/sessionguard/core/lifecycle"
	"github.com/dmitrymomot/sessionguard/core/logger"
	"github.com/dmitrymomot/sessionguard/core/session"
	"github.com/dmitrymomot/sessionguard/handler"
	"github.com/dmitrymomot/sessionguard/integration/database/redis"
	"github.com/dmitrymomot/sessionguard/middleware"
	"github.com/dmitrymomot/sessionguard/pkg/slug"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg) // panic on error

	log := logger.New(logger.WithDevelopment(cfg.AppName))

	// The record store decides how far invalidation reaches: in-memory covers
	// a single process, Redis covers every instance sharing the URL.
	var (
		store       session.RecordStore
		healthcheck func(context.Context) error
	)
	if cfg.RedisURL != "" {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			log.Error("Failed to connect to redis", logger.Component("database"), logger.Error(err))
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()

		store = redis.NewStore(client, redisCfg)
		healthcheck = redis.Healthcheck(client)
	} else {
		log.Warn("REDIS_URL is not set, using in-process record store",
			logger.Component("database"))
		store = session.NewMemoryStore()
		healthcheck = func(context.Context) error { return nil }
	}

	hub := handler.NewHub(log)
	defer func() { _ = hub.Close() }()

	ctrl, err := lifecycle.New(store,
		lifecycle.WithConfig(cfg.Session),
		lifecycle.WithLogger(log),
		lifecycle.WithNotifier(hub),
		lifecycle.WithNavigator(lifecycle.NavigatorFunc(func(path string) {
			log.Info("navigating to login", logger.Component("lifecycle"), "path", path)
		})),
	)
	if err != nil {
		log.Error("Failed to create session controller", logger.Component("lifecycle"), logger.Error(err))
		os.Exit(1)
	}
	defer ctrl.Stop()

	mux := http.NewServeMux()
	mux.Handle("GET /health/live", health.Liveness())
	mux.Handle("GET /health/ready", health.Readiness(log, healthcheck))
	mux.Handle("GET /ping", health.NoContent())

	mux.HandleFunc("POST /auth/login", loginHandler(ctx, ctrl, log))
	mux.Handle("GET /session/events", hub)

	// Every session route counts as activity except the feed itself.
	sessionMux := http.NewServeMux()
	handler.NewSession(ctrl).Register(sessionMux)
	mux.Handle("/session", middleware.Activity(ctrl.Monitor())(sessionMux))
	mux.Handle("/session/", middleware.ActivityWithConfig(ctrl.Monitor(), middleware.ActivityConfig{
		Skip: func(r *http.Request) bool { return r.URL.Path == "/session/events" },
	})(sessionMux))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		log.Info("listening", logger.Component("server"), "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", logger.Component("server"), logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown failed", logger.Component("server"), logger.Error(err))
	}
}

type loginRequest struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

// loginHandler stands in for a real authentication flow: it installs a new
// authoritative session for the account and starts lifecycle monitoring.
// A second login for the same account, from anywhere, supersedes the first.
func loginHandler(appCtx context.Context, ctrl *lifecycle.Controller, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
			http.Error(w, "account_id is required", http.StatusBadRequest)
			return
		}

		id, err := ctrl.StartSession(r.Context(), req.AccountID, session.DeviceInfo{
			UserAgent: r.UserAgent(),
		})
		if err != nil {
			log.ErrorContext(r.Context(), "login failed", logger.Error(err))
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}

		if req.Username != "" {
			ctrl.Cache().SetProfile(req.Username, slug.Make(req.Username))
		}

		if err := ctrl.Start(appCtx); err != nil {
			log.ErrorContext(r.Context(), "failed to start monitoring", logger.Error(err))
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]string{"session_id": id})
	}
}
