// Package middleware holds the echo middleware that sits between the HTTP
// boundary and goAccount.Engine.
//
// # Guards
//
//   - [RequireSession] validates the session token and stores the session in
//     the echo context. Every successful check slides the session expiry.
//   - [RequestContext] copies client IP, User-Agent and request id into the
//     request context so audit events can carry them.
//
// Token lookup order is the Authorization header (raw token or "Bearer <t>")
// then the session_token query parameter. See [SessionToken].
//
// This package makes no account decisions of its own; pass or reject comes
// from Engine.ValidateSession.
package middleware
