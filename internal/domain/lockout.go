package domain

import "time"

// LockoutRecord tracks consecutive failed logins for one username
// (keyed lowercased). Transient soft-security state: reset on a
// successful login or once the lock expires.
type LockoutRecord struct {
	FailedCount int
	LockedUntil time.Time
}

// Locked reports whether the account is still locked at the given instant.
func (r *LockoutRecord) Locked(now time.Time) bool {
	return r != nil && !r.LockedUntil.IsZero() && now.Before(r.LockedUntil)
}
