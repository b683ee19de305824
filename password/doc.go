// Package password implements password hashing and verification with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Cost parameters are read back from the encoded string on Verify, so hashes
// produced under older parameters keep verifying after a config change.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Field validation for the HTTP
// boundary lives in the api package; the minimum length here is a floor, not policy.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other goAccount package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
