// Package cli provides the interactive credctl command-line client.
//
// It wires configuration, the local session database, the auth service and
// a read-eval-print loop. On start it resumes a saved session when one is
// still valid; otherwise the user logs in with "login".
//
// Commands:
//   - register / login / logout
//   - refresh: rotate the token pair now
//   - whoami: show the identity carried by the access token
//   - probe <name>: call a role-gated endpoint (authenticated, admin,
//     superadmin, useradmin)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or stdin is closed.
package cli
