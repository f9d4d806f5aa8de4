package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds process configuration for the relay and the terminal client.
type Config struct {
	// Server
	Port         int      `env:"PORT" envDefault:"8080"`
	Env          string   `env:"ENV" envDefault:"development"`
	MaxBodyBytes int64    `env:"MAX_BODY_BYTES" envDefault:"65536"`
	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Provider
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-pro-latest"`
	GeminiBaseURL   string        `env:"GEMINI_BASE_URL"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"0s"`

	// AWS: the API key is read from SSM when ParamPrefix is set, and
	// exchanges are logged to DynamoDB when ExchangeTable is set.
	ParamPrefix   string `env:"PARAM_PREFIX"`
	ExchangeTable string `env:"EXCHANGE_TABLE"`

	// Client
	RelayURL    string `env:"RELAY_URL" envDefault:"http://localhost:8080"`
	ChatLogFile string `env:"CHAT_LOG_FILE" envDefault:"advisor-chat.log"`
}

// Load reads a .env file if one exists and then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ParamPrefix = strings.TrimRight(strings.TrimSpace(cfg.ParamPrefix), "/")
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("parse config: PORT %d out of range", cfg.Port)
	}
	if cfg.ProviderTimeout < 0 {
		return nil, fmt.Errorf("parse config: PROVIDER_TIMEOUT must not be negative")
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// UsesParamStore reports whether the provider key comes from SSM.
func (c *Config) UsesParamStore() bool {
	return c.ParamPrefix != ""
}
