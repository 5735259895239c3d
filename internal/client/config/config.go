package config

import (
	"errors"
	"os"
	"time"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "CREDCTL_"

// Config holds runtime settings for the credctl CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - RequestTimeout: deadline applied to every call.
//   - SessionFile: SQLite file remembering the last login.
type Config struct {
	ServerEndpointAddr string        `env:"SERVER_ENDPOINT_ADDR"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
	SessionFile        string        `env:"SESSION_FILE"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 5 * time.Second
	c.SessionFile = "credctl.db"
}

// LoadConfig builds a Config from os.Args and the process environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], nil)
}

// Load applies defaults, JSON, environment (environ, or the process
// environment when nil) and flags, in that order.
func Load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if cfg.ServerEndpointAddr == "" {
		return nil, errors.New("server address is empty")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, errors.New("request timeout must be positive")
	}
	return cfg, nil
}
