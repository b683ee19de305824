// Package credential stores user accounts and checks passwords.
//
// [PostgresStore] is the primary engine (pgx driver, goose-managed schema);
// [FileStore] keeps a JSON array on disk and is the fallback. Both enforce
// uniqueness on username OR email with exact, case-sensitive matching and both
// answer an unknown identifier and a wrong password with the same
// [ErrInvalidCredentials].
//
// # Architecture boundaries
//
// Hashing is delegated to a [password.Hasher]; this package never sees a
// plaintext password after the call that received it returns.
//
// # What this package must NOT do
//
//   - Create sessions or touch profiles.
//   - Reveal which half of a failed login (identifier or password) was wrong.
//   - Persist or log plaintext passwords.
package credential
