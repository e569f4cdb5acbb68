package domain

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the authorization role of the signed-in user.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Session is the identity of the signed-in user.
// The zero value is an unauthenticated session.
type Session struct {
	Token  string `yaml:"token" json:"token"`
	Role   Role   `yaml:"role" json:"role"`
	UserID string `yaml:"user_id" json:"userId"`
	Email  string `yaml:"email" json:"email"`
}

// Authenticated reports whether a credential token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// IsAdmin reports whether the session has the Admin role.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Expired reports whether the token carries an exp claim that is not after now.
// Tokens that are not JWTs, or carry no exp claim, never expire client-side.
// The signature is not verified; the server remains the authority.
func (s Session) Expired(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	tok, _, err := jwt.NewParser().ParseUnverified(s.Token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// Presence returns the entry this session announces on the push channel.
func (s Session) Presence() PresenceEntry {
	return PresenceEntry{UserID: s.UserID, Email: s.Email}
}

// PresenceEntry is one online collaborator.
type PresenceEntry struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Valid reports whether both fields are present and not a placeholder value.
func (p PresenceEntry) Valid() bool {
	return !IsSentinel(p.UserID) && !IsSentinel(p.Email)
}

// IsSentinel reports whether v is empty or a placeholder such as "undefined"
// that some clients send before their identity is known.
func IsSentinel(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "undefined", "null", "nil":
		return true
	default:
		return false
	}
}

// SessionProvider supplies the current identity to components that need it.
type SessionProvider interface {
	// Current returns a copy of the current session.
	Current() Session
}
