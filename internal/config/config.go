package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when CONFIG_PATH is not set.
const DefaultPath = "config.yml"

type Config struct {
	HTTPAddr        string        `yaml:"http-addr" env:"HTTP_ADDR" env-default:":8080"`
	LogLevel        string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	OpponentDelay   time.Duration `yaml:"opponent-delay" env:"OPPONENT_DELAY" env-default:"500ms"`
	SessionIdleTTL  time.Duration `yaml:"session-idle-ttl" env:"SESSION_IDLE_TTL" env-default:"30m"`
	JanitorInterval time.Duration `yaml:"janitor-interval" env:"JANITOR_INTERVAL" env-default:"1m"`
	WSPongWait      time.Duration `yaml:"ws-pong-wait" env:"WS_PONG_WAIT" env-default:"60s"`
	Redis           Redis         `yaml:"redis"`
	SQLite          SQLite        `yaml:"sqlite"`
	JWT             JWT           `yaml:"jwt"`
	Telemetry       Telemetry     `yaml:"telemetry"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Addr    string `yaml:"addr" env:"REDIS_CONNSTRING" env-default:"localhost:6379"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:":memory:"`
}

type JWT struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"24h"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"otel-collector:4317"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"tic-tac-toe"`
	Stdout      bool   `yaml:"stdout" env:"OTEL_STDOUT" env-default:"false"`
}

// Load reads the YAML file at path when it exists and applies environment
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("unable to load config file %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("unable to load config from env: %w", err)
		}
	} else {
		return nil, fmt.Errorf("unable to stat config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads the configuration from CONFIG_PATH (or DefaultPath) and panics on failure.
func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}

	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.OpponentDelay < 0 {
		return fmt.Errorf("opponent-delay must not be negative, got %s", c.OpponentDelay)
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("session-idle-ttl must be positive, got %s", c.SessionIdleTTL)
	}
	if c.JanitorInterval <= 0 {
		return fmt.Errorf("janitor-interval must be positive, got %s", c.JanitorInterval)
	}
	if c.WSPongWait <= 0 {
		return fmt.Errorf("ws-pong-wait must be positive, got %s", c.WSPongWait)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret must be set (JWT_SECRET or jwt.secret)")
	}
	return nil
}
