package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilConfig is returned when a nil value is passed to Load.
	ErrNilConfig = errors.New("config must not be nil")
	// ErrInvalidConfig is returned when the value passed to Load is not a non-nil pointer to a struct.
	ErrInvalidConfig = errors.New("config must be a non-nil pointer to a struct")
	// ErrParseFailed wraps environment parsing failures.
	ErrParseFailed = errors.New("failed to parse environment variables")
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> loaded struct value
)

// Load populates cfg from environment variables using `env` struct tags.
// A .env file in the working directory is loaded once, before the first parse.
// Each configuration type is parsed only once per process; subsequent calls
// for the same type return the cached value.
func Load(cfg any) error {
	if cfg == nil {
		return ErrNilConfig
	}

	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidConfig
	}

	dotenvOnce.Do(func() {
		// Missing .env file is not an error; env vars may come from the real environment.
		_ = godotenv.Load()
	})

	typ := v.Elem().Type()
	if cached, ok := cache.Load(typ); ok {
		v.Elem().Set(reflect.ValueOf(cached))
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParseFailed, err)
	}

	cache.Store(typ, v.Elem().Interface())
	return nil
}

// MustLoad is like Load but panics on failure. Useful during application startup
// where a missing required variable should abort the process.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}
