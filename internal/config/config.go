package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string `yaml:"log-level" env:"TTT_LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log-format" env:"TTT_LOG_FORMAT" env-default:"console"`
	HTTP      HTTP   `yaml:"http"`
	Events    Events `yaml:"events"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"TTT_HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read-timeout" env:"TTT_HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write-timeout" env:"TTT_HTTP_WRITE_TIMEOUT" env-default:"0s"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"TTT_HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Events configures the server-sent event stream. WriteTimeout above stays
// zero by default so long-lived streams are not cut off.
type Events struct {
	Heartbeat time.Duration `yaml:"heartbeat" env:"TTT_EVENTS_HEARTBEAT" env-default:"15s"`
	Buffer    int           `yaml:"buffer" env:"TTT_EVENTS_BUFFER" env-default:"1"`
}

// Load reads configuration from the YAML file at path, then applies
// environment overrides. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("unable to read config from env: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("unable to load config file %s: %w", path, err)
	}

	return cfg, nil
}

// MustLoad is Load for program start-up; it panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
