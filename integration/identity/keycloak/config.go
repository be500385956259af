package keycloak

import "time"

// Config contains Keycloak connection configuration with environment variable mapping.
type Config struct {
	BaseURL      string        `env:"KEYCLOAK_BASE_URL,required"`
	Realm        string        `env:"KEYCLOAK_REALM,required"`
	ClientID     string        `env:"KEYCLOAK_CLIENT_ID,required"`
	ClientSecret string        `env:"KEYCLOAK_CLIENT_SECRET"`
	HTTPTimeout  time.Duration `env:"KEYCLOAK_HTTP_TIMEOUT" envDefault:"30s"`
}
