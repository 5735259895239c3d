// Package config handles configuration for the server component:
// defaults, an optional JSON file, environment variables and command-line
// flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/passwords"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "CREDKEEPER_"

// MinSecretKeySize is the shortest HMAC key Validate accepts, in bytes.
const MinSecretKeySize = 32

// DefaultSecretKey is public; a server started with it logs a warning.
const DefaultSecretKey = "credkeeper-insecure-development-signing-key"

// Config holds runtime settings for the credkeeper server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps users in memory.
//   - SecretKey: HMAC secret for signing access tokens (HS256).
//   - TokenIssuer / TokenAudience: the iss and aud claims.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - PasswordAlgorithm: "argon2id" or "bcrypt" for new hashes.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrGRPC             string        `env:"ENDPOINT_ADDR_GRPC"`
	DatabaseDSN                  string        `env:"DATABASE_DSN"`
	SecretKey                    string        `env:"SECRET_KEY"`
	TokenIssuer                  string        `env:"TOKEN_ISSUER"`
	TokenAudience                string        `env:"TOKEN_AUDIENCE"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_VALIDITY_DURATION"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_VALIDITY_DURATION"`
	PasswordAlgorithm            string        `env:"PASSWORD_ALGORITHM"`
	LogLevel                     string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: DefaultSecretKey is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = DefaultSecretKey
	c.TokenIssuer = "credkeeper"
	c.TokenAudience = "credkeeper-clients"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.PasswordAlgorithm = string(passwords.Argon2ID)
	c.LogLevel = "info"
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.EndpointAddrGRPC == "" {
		errs = append(errs, errors.New("endpoint address is empty"))
	}
	switch {
	case c.SecretKey == "":
		errs = append(errs, errors.New("secret key is empty"))
	case len(c.SecretKey) < MinSecretKeySize:
		errs = append(errs, fmt.Errorf("secret key must be at least %d bytes", MinSecretKeySize))
	}
	if c.TokenIssuer == "" {
		errs = append(errs, errors.New("token issuer is empty"))
	}
	if c.TokenAudience == "" {
		errs = append(errs, errors.New("token audience is empty"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token validity must be positive"))
	}
	if c.RefreshTokenValidityDuration <= c.AccessTokenValidityDuration {
		errs = append(errs, errors.New("refresh token validity must exceed access token validity"))
	}
	if _, err := passwords.ParseAlgorithm(c.PasswordAlgorithm); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig builds a Config from os.Args and the process environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], nil)
}

// Load applies defaults, then the JSON file named by -c/-config in args,
// then environment variables (environ, or the process environment when
// nil), then flags in args, and validates the result.
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
