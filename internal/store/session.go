package store

import (
	"sync/atomic"

	"github.com/runoshun/boardsync/internal/domain"
)

// SessionContext holds the current identity.
// Unlike the other stores it is safe for concurrent use: every component
// reads it, and only login and logout write it.
type SessionContext struct {
	current atomic.Pointer[domain.Session]
}

// NewSessionContext creates a SessionContext holding s.
func NewSessionContext(s domain.Session) *SessionContext {
	c := &SessionContext{}
	c.Set(s)
	return c
}

// Current returns a copy of the current session.
func (c *SessionContext) Current() domain.Session {
	if s := c.current.Load(); s != nil {
		return *s
	}
	return domain.Session{}
}

// Set replaces the current session.
func (c *SessionContext) Set(s domain.Session) {
	c.current.Store(&s)
}

// Clear resets to the unauthenticated session.
func (c *SessionContext) Clear() {
	c.current.Store(&domain.Session{})
}

var _ domain.SessionProvider = (*SessionContext)(nil)
