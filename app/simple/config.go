package main

import (
	"time"

	"github.com/dmitrymomot/sessionguard/core/lifecycle"
)

// Config aggregates the demo application configuration. Nested structs load
// from the environment through the same config.Load call.
type Config struct {
	AppName         string        `env:"APP_NAME" envDefault:"sessionguard-simple"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// RedisURL switches the record store from in-memory to Redis when set.
	RedisURL string `env:"REDIS_URL"`

	Session lifecycle.Config
}
