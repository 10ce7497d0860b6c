package shared

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	AppEnv      string `env:"APP_ENV, default=prod"`
	LogLevel    string `env:"LOG_LEVEL, default=info"`
	HTTPAddr    string `env:"HTTP_ADDR, default=:8080"`
	MetricsAddr string `env:"METRICS_ADDR"`

	BackendBase string `env:"BACKEND_BASE_URL, default=https://sunflower-booking-backend-966219880837.us-central1.run.app"`
	BackendRPS  int    `env:"BACKEND_RPS, default=0"`

	SessionBackend string        `env:"SESSION_BACKEND, default=memory"` // memory|redis
	SessionTTL     time.Duration `env:"SESSION_TTL, default=24h"`
	CookieSecure   bool          `env:"COOKIE_SECURE, default=false"`

	RedisAddr string `env:"REDIS_ADDR, default=localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB, default=0"`

	CacheTTLSeconds int `env:"CACHE_TTL_SECONDS, default=300"`

	WarmInterval time.Duration `env:"WARM_INTERVAL, default=0"` // 0 runs the warmer once
}

func (c Config) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSeconds) * time.Second }

// Load reads an optional .env file, then decodes the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file, using process environment")
	}
	var c Config
	if err := envconfig.Process(context.Background(), &c); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if c.SessionBackend != "memory" && c.SessionBackend != "redis" {
		log.Warn().Str("backend", c.SessionBackend).Msg("unknown SESSION_BACKEND, falling back to memory")
		c.SessionBackend = "memory"
	}
	return c
}
