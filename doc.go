// Package goAccount composes a user-account service from three stores:
// credentials, sessions and profile documents.
//
// Each store runs on a real engine (PostgreSQL, Redis, SQLite) or on a JSON
// file fallback. [Builder] picks the backend per store according to
// [BackendsConfig] and [Engine] coordinates registration, login, session
// validation and profile updates on top of whatever was selected.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build]. Every operation returns a [Result] whose Message is safe to
// show to end users and whose Err carries the sentinel for errors.Is.
//
// # Architecture boundaries
//
// Store implementations live in the credential, session and profile packages.
// Flow orchestration, audit dispatch and file persistence live under
// internal/. The HTTP boundary lives in api and middleware and talks only to
// [Engine].
package goAccount
