package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/boardsync/internal/domain"
)

// SessionHolder holds the in-memory session used by outgoing requests.
// *store.SessionContext implements it.
type SessionHolder interface {
	Set(s domain.Session)
	Clear()
}

// LoginInput contains the credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput contains the new session.
type LoginOutput struct {
	Session domain.Session
}

// Login exchanges credentials for a session and persists it.
type Login struct {
	api      domain.BoardAPI
	sessions domain.SessionStore
	current  SessionHolder
	log      domain.Logger
}

// NewLogin creates a new Login use case.
func NewLogin(api domain.BoardAPI, sessions domain.SessionStore, current SessionHolder, log domain.Logger) *Login {
	return &Login{
		api:      api,
		sessions: sessions,
		current:  current,
		log:      log,
	}
}

// Execute logs in. Empty credentials are rejected before any request.
func (uc *Login) Execute(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrEmptyCredentials
	}

	s, err := uc.api.Login(ctx, email, in.Password)
	if err != nil {
		uc.log.Warn("session", fmt.Sprintf("login of %s: %s", email, domain.UserMessage(err)))
		return nil, fmt.Errorf("login: %w", err)
	}
	if s.Email == "" {
		s.Email = email
	}

	if err := uc.sessions.Save(s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	uc.current.Set(s)

	uc.log.Info("session", fmt.Sprintf("logged in as %s (%s)", s.Email, s.Role))
	return &LoginOutput{Session: s}, nil
}

// LogoutInput contains the parameters for logging out.
type LogoutInput struct{}

// LogoutOutput contains the result of logging out.
type LogoutOutput struct{}

// Logout forgets the session in memory and on disk.
type Logout struct {
	sessions domain.SessionStore
	current  SessionHolder
	log      domain.Logger
}

// NewLogout creates a new Logout use case.
func NewLogout(sessions domain.SessionStore, current SessionHolder, log domain.Logger) *Logout {
	return &Logout{
		sessions: sessions,
		current:  current,
		log:      log,
	}
}

// Execute logs out. The in-memory session is cleared even if the file cannot be removed.
func (uc *Logout) Execute(_ context.Context, _ LogoutInput) (*LogoutOutput, error) {
	uc.current.Clear()
	if err := uc.sessions.Clear(); err != nil {
		return nil, fmt.Errorf("clear session: %w", err)
	}
	uc.log.Info("session", "logged out")
	return &LogoutOutput{}, nil
}
