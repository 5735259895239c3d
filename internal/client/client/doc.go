// Package client contains the credctl side of the credkeeper transport.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface).
//  2. A gRPC implementation (see GRPCClient) that injects the access token
//     via an interceptor, transparently refreshes it once when the server
//     rejects it, and maps gRPC status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrForbidden,
// ErrConflict, ErrInvalidArgument, ErrNotLoggedIn.
package client
