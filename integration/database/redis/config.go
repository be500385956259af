package redis

import "time"

// Config contains Redis connection configuration with environment variable mapping.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	// KeyPrefix namespaces session record keys and change channels.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"sessionguard"`

	// RecordTTL bounds how long an abandoned session record lingers.
	// Zero keeps records forever.
	RecordTTL time.Duration `env:"REDIS_RECORD_TTL" envDefault:"0"`
}
