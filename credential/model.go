package credential

import (
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goAccount/password"
)

var (
	// ErrDuplicate is returned by Register when the username or the email is taken.
	ErrDuplicate = errors.New("username or email already exists")
	// ErrInvalidCredentials is returned by Authenticate for an unknown identifier
	// and for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput is returned when a required field is empty.
	ErrInvalidInput = errors.New("username, email and password are required")
)

// User is an immutable account record. PasswordHash never leaves this package
// in serialized form.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// verifier runs password checks so that a missing user costs the same as a
// wrong password.
type verifier struct {
	hasher password.Hasher

	once  sync.Once
	dummy string
}

func newVerifier(hasher password.Hasher) *verifier {
	return &verifier{hasher: hasher}
}

// check reports whether pw matches user. A nil user is checked against a
// dummy hash and always fails.
func (v *verifier) check(user *User, pw string) bool {
	if user == nil {
		v.once.Do(func() {
			v.dummy, _ = v.hasher.Hash("dummy-password-for-timing")
		})
		if v.dummy != "" {
			_, _ = v.hasher.Verify(pw, v.dummy)
		}
		return false
	}

	ok, err := v.hasher.Verify(pw, user.PasswordHash)
	return err == nil && ok
}

func validRegistration(username, email, pw string) error {
	if username == "" || email == "" || pw == "" {
		return ErrInvalidInput
	}
	return nil
}
