package internal

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

const sessionTokenBytes = 32

// SessionTokenLength is the length of an encoded session token.
const SessionTokenLength = sessionTokenBytes * 2

// NewSessionToken returns 256 bits from crypto/rand, hex encoded.
func NewSessionToken() (string, error) {
	var raw [sessionTokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// ValidSessionToken reports whether token has the shape NewSessionToken produces.
// It is a cheap pre-check before touching storage.
func ValidSessionToken(token string) bool {
	if len(token) != SessionTokenLength {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}

// NewEventID returns a random identifier for audit events and request tracing.
func NewEventID() string {
	return uuid.NewString()
}
