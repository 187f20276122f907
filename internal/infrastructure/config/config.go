package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Mode selects which backend the stores talk to.
const (
	ModeLive = "live" // external REST API
	ModeDemo = "demo" // in-process memory backend
)

type Config struct {
	Mode     string `env:"HORIZON_MODE,     default=live"`
	Env      string `env:"ENV,              default=development"`
	LogLevel string `env:"LOG_LEVEL,        default=info"`

	API     APIConfig
	Session SessionConfig
	Stub    StubConfig
}

// APIConfig configures the REST gateway.
type APIConfig struct {
	BaseURL string        `env:"HORIZON_API_URL,      default=http://localhost:3000/api/v1"`
	Timeout time.Duration `env:"HORIZON_HTTP_TIMEOUT, default=10s"`
}

// SessionConfig configures local session persistence. Dir defaults to
// the working directory when empty.
type SessionConfig struct {
	Dir string `env:"HORIZON_SESSION_DIR, default=."`
}

// StubConfig configures the local stub API server.
type StubConfig struct {
	Port      string        `env:"STUB_PORT,  default=3000"`
	JWTSecret string        `env:"JWT_SECRET, default=horizon-dev-secret"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
