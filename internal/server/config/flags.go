package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/flagx"
)

// parseFlags overlays command-line flags.
//
// Supported flags:
//
//	-a string     gRPC bind address (e.g., ":50051")
//	-d string     PostgreSQL DSN
//	-s string     access token HMAC secret key
//	-iss string   access token issuer
//	-aud string   access token audience
//	-t int        access token validity, minutes
//	-r int        refresh token validity, minutes
//	-alg string   password algorithm (argon2id, bcrypt)
//	-l string     log level
//
// Args are filtered through flagx.FilterArgs first, so unrelated flags
// such as -c are ignored.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-iss", "-aud", "-t", "-r", "-alg", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.TokenIssuer, "iss", config.TokenIssuer, "token issuer")
	fs.StringVar(&config.TokenAudience, "aud", config.TokenAudience, "token audience")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.PasswordAlgorithm, "alg", config.PasswordAlgorithm, "password hashing algorithm")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only touch durations that were given, so sub-minute values from
	// the file or environment survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
	return nil
}
