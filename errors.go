package goAccount

import (
	"errors"

	"github.com/MrEthical07/goAccount/credential"
	"github.com/MrEthical07/goAccount/profile"
	"github.com/MrEthical07/goAccount/session"
)

// Store sentinels are re-exported so callers can match them without importing
// the store packages.
var (
	ErrDuplicate               = credential.ErrDuplicate
	ErrInvalidCredentials      = credential.ErrInvalidCredentials
	ErrInvalidInput            = credential.ErrInvalidInput
	ErrInvalidOrExpiredSession = session.ErrInvalidOrExpired
	ErrSessionExpired          = session.ErrExpired
	ErrNotFound                = profile.ErrNotFound
)

var (
	// ErrBackendUnavailable is returned by Build when a store pinned to its
	// engine cannot be reached, and wraps storage failures at runtime.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	// ErrCapabilityUnsupported is returned when the active backend lacks an
	// optional operation such as profile deletion.
	ErrCapabilityUnsupported = errors.New("operation not supported by backend")
	// ErrEngineNotReady is returned by a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrSessionTokenRequired is returned when a session operation gets an empty token.
	ErrSessionTokenRequired = errors.New("session token required")
)
