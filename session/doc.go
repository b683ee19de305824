// Package session owns the lifecycle of opaque session tokens: create,
// validate with sliding expiry, and destroy.
//
// Two stores implement the same contract. [RedisStore] is the primary engine;
// [FileStore] keeps a JSON object on disk and is substituted when Redis cannot
// be reached at startup. Both treat the stored ExpiresAt as authoritative: a
// session is valid through ExpiresAt inclusive, each successful Validate moves
// ExpiresAt to now+TTL, and the first Validate that sees an expired record
// deletes it.
//
// # Binary encoding
//
// Redis values use a compact versioned binary layout (see [Encode]). The token
// is the key and is never part of the value.
//
// # Architecture boundaries
//
// This package does NOT authenticate users or know about passwords. The caller
// hands in an already-authenticated [Owner].
//
// # What this package must NOT do
//
//   - Import goAccount (no upward imports).
//   - Log or persist anything derived from a password.
//   - Renew a session that has already expired.
package session
