// Package auth is keygate's authorization engine.
//
// It owns four stores (permission catalog, role registry, credential store
// and the users they belong to) and three operations on top of them:
//
//   - Issuer runs the two-phase credential handshake. IssueKeyToken hands
//     out a key/token pair once; IssueSecret exchanges a matching pair for
//     a client secret once. Both are single conditional UPDATEs, so racing
//     callers cannot both succeed.
//   - Authenticator resolves a client secret (an HS256 JWT whose SHA-256
//     digest is stored on the user) to its user.
//   - Authorizer admits a user whose role holds any of the required
//     permission names.
//
// Registry and Accounts are the admin-facing services for roles,
// permissions and users. Bootstrap seeds an empty database.
//
// Errors match one class sentinel (ErrNotFound, ErrForbidden, ...) with
// errors.Is, which the API maps to HTTP status codes.
package auth
