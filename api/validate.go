package api

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6

	msgInvalidJSON      = "Invalid JSON input"
	msgInvalidEmail     = "Invalid email format"
	msgPasswordTooShort = "Password must be at least 6 characters long"
	msgUsernameTooShort = "Username must be at least 3 characters long"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type logoutRequest struct {
	SessionToken string `json:"session_token"`
}

func missingField(name string) string {
	return "Missing required field: " + name
}

// validate checks the registration body in the order clients expect the
// first complaint: presence, email shape, password length, username length.
func (r *registerRequest) validate() string {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	for _, f := range []struct{ name, value string }{
		{"username", r.Username},
		{"email", r.Email},
		{"password", r.Password},
	} {
		if f.value == "" {
			return missingField(f.name)
		}
	}
	if !validEmail(r.Email) {
		return msgInvalidEmail
	}
	if utf8.RuneCountInString(r.Password) < minPasswordLength {
		return msgPasswordTooShort
	}
	if utf8.RuneCountInString(r.Username) < minUsernameLength {
		return msgUsernameTooShort
	}
	return ""
}

func (r *loginRequest) validate() string {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return missingField("username")
	}
	if r.Password == "" {
		return missingField("password")
	}
	return ""
}

// validEmail accepts a bare addr-spec with a dotted domain.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return at > 0 && strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}
