// Package api implements the HTTP REST API and WebSocket server for keygate.
//
// This package provides:
//   - The credential handshake endpoints (key/token, then client secret)
//   - User, role and permission administration under /api/useradmin
//   - The brand and category catalog under /api/productadmin
//   - A WebSocket stream of security events
//   - Middleware stack (request ID, logging, recovery, CORS, security headers)
//
// # Security
//
// Protected routes read the client secret from the "client-secret" header.
// requireSecret resolves it to a user through auth.Authenticator and
// requirePermission admits the request if the user's role holds any of the
// route's permission names. Read routes also accept the section-wide
// Admin_<Section> permission.
//
// The two credential issuance routes are deliberately unguarded: they are
// how a first client secret is obtained.
//
// # Errors
//
// Every error body is {"status","code","message"}. Errors from the auth and
// catalog packages are mapped by class in writeAuthError.
package api
