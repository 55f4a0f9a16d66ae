package domain

import "time"

// Session is the single active login session. It is never a source of
// truth for user data; callers re-resolve the User record by UserID.
type Session struct {
	ID        string
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// Valid reports whether the session is still usable at the given instant.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}
