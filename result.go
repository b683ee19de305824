package goAccount

// User-facing messages carried in Result.Message.
const (
	MsgRegistered        = "Registration successful"
	MsgDuplicate         = "Username or email already exists"
	MsgLoginSuccess      = "Login successful"
	MsgInvalidCreds      = "Invalid credentials"
	MsgSessionValid      = "Session valid"
	MsgInvalidSession    = "Invalid or expired session"
	MsgLogout            = "Logout successful"
	MsgProfileFound      = "Profile retrieved successfully"
	MsgProfileUpdated    = "Profile updated successfully"
	MsgProfileNotFound   = "Profile not found"
	MsgProfileDeleted    = "Profile deleted successfully"
	MsgDeleteUnsupported = "Delete not implemented"
	MsgTokenRequired     = "Session token required"
	MsgMissingFields     = "Username, email and password are required"
	MsgPasswordTooShort  = "Password must be at least 6 characters long"
	MsgPasswordTooLong   = "Password is too long"
)

// Result is the uniform outcome of every Engine operation. Message is safe to
// return to clients; Err carries the sentinel and is never serialized.
type Result struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	UserID       int64    `json:"user_id,omitempty"`
	SessionToken string   `json:"session_token,omitempty"`
	User         *User    `json:"user,omitempty"`
	Session      *Session `json:"session,omitempty"`
	Profile      *Profile `json:"profile,omitempty"`
	Err          error    `json:"-"`
}

func ok(msg string) Result {
	return Result{Success: true, Message: msg}
}

func fail(msg string, err error) Result {
	return Result{Success: false, Message: msg, Err: err}
}

// failed builds the generic storage failure result, e.g. "Login failed".
func failed(op string, err error) Result {
	return fail(op+" failed", err)
}
