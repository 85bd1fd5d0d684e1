package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseFile    string        `env:"ACCOUNTS_DATABASE_FILE" envDefault:"accounts.db"`
	RoleCatalogFile string        `env:"ACCOUNTS_ROLE_CATALOG_FILE"`
	RoleCacheTTL    time.Duration `env:"ACCOUNTS_ROLE_CACHE_TTL" envDefault:"5m"`

	// Redis backs the role cache when an address is set; otherwise it is process-local.
	RedisAddr     string `env:"ACCOUNTS_REDIS_ADDR"`
	RedisPassword string `env:"ACCOUNTS_REDIS_PASSWORD"`
	RedisDB       int    `env:"ACCOUNTS_REDIS_DB" envDefault:"0"`

	// Deletion events are published to AMQP when a URL is set.
	AMQPURL      string `env:"ACCOUNTS_AMQP_URL"`
	AMQPExchange string `env:"ACCOUNTS_AMQP_EXCHANGE" envDefault:"accounts.events"`

	// Without a JWKS URL the API rejects every bearer token.
	JWKSURL     string        `env:"ACCOUNTS_JWKS_URL"`
	JWKSRefresh time.Duration `env:"ACCOUNTS_JWKS_REFRESH" envDefault:"10m"`
	Issuer      string        `env:"ACCOUNTS_ISSUER" envDefault:"bartab-auth"`
	Audience    []string      `env:"ACCOUNTS_AUDIENCE" envDefault:"accounts" envSeparator:","`
	HookTimeout time.Duration `env:"ACCOUNTS_HOOK_TIMEOUT" envDefault:"10s"`

	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
