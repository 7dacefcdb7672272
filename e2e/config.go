package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// GATEWAY_ADDR is the host:port of a running gateway; the suite
	// skips entirely when it is unset.
	GatewayAddr string `envconfig:"GATEWAY_ADDR"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	JWTSecret   string `envconfig:"JWT_SECRET" default:"local-dev-secret"`
	JWTIssuer   string `envconfig:"JWT_ISSUER" default:"im-core"`
	// E2E_DEBUG_JSON dumps full frame bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
