package model

import "time"

// Session is the explicit per-user context passed into the compiler and
// the transport. Nothing in this module keeps it in a global.
type Session struct {
	UserID int64
	Login  string
	Token  string
	Now    func() time.Time
}

// Clock returns the current time in UTC, honoring an injected Now.
func (s Session) Clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
