// Package internal holds helpers private to goAccount: session token
// generation and event identifiers.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - filestore: mutex-guarded JSON collections for the fallback stores
//   - flows: flow orchestrators for every Engine operation
//   - logging: slog-backed structured logger
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAccount API.
//   - Be imported by any package outside the goAccount module.
package internal
