// Package config loads runtime configuration for the credctl CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables prefixed with CREDCTL_.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the credkeeper gRPC endpoint
//	-t int      per-request timeout (seconds)
//	-f string   path of the local session database
//
// # JSON schema
//
// Durations may be strings like "5s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "5s",
//	  "session_file": "credctl.db"
//	}
package config
