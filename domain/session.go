package domain

import "time"

// Session represents the authenticated identity held between login and
// logout. It is persisted locally so a restart does not force a re-login.
type Session struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Authenticated reports whether the session carries a usable identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID > 0 && s.Token != ""
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// IsExpired reports whether the session's token has lapsed. Sessions
// without a known expiry never expire locally; the server still rejects
// them with a 401 once the token is stale.
func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// User returns the session's identity as a User value.
func (s *Session) User() User {
	if s == nil {
		return User{}
	}
	return User{ID: s.UserID, Username: s.Username, Role: s.Role}
}
