// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"saasbase/internal/domain/entity"

	"github.com/google/uuid"
)

// BeginLoginInput carries the parameters for starting a login attempt.
type BeginLoginInput struct {
	Provider    entity.Provider
	RedirectURI string
}

// BeginLoginOutput carries the authorization URL plus the per-attempt secrets
// the delivery layer must persist in short-lived cookies for the callback.
type BeginLoginOutput struct {
	URL          string
	State        string
	CodeVerifier string // Empty for providers that do not use PKCE.
}

// CompleteLoginInput carries the callback parameters for finishing a login.
// State equality has already been checked by the delivery layer; everything
// here is what the provider round-trip produced.
type CompleteLoginInput struct {
	Provider     entity.Provider
	Code         string
	RedirectURI  string
	CodeVerifier string
	UserPayload  string // Apple's one-time 'user' form field; empty otherwise.
}

// CompleteLoginOutput is the result of a finished login.
type CompleteLoginOutput struct {
	Token   string // The raw bearer token; shown exactly once, never stored.
	Session *entity.Session
	User    *entity.User
	Created bool // True when this login created a new user.
}

// SessionValidation is the result of a successful token validation.
type SessionValidation struct {
	Session *entity.Session
	User    *entity.User
}

// AuthUsecase defines the interface for login, session and logout operations.
type AuthUsecase interface {
	// AuthorizationURL starts a login attempt against the named provider.
	AuthorizationURL(ctx context.Context, input BeginLoginInput) (*BeginLoginOutput, error)

	// CompleteLogin redeems a callback code, reconciles the user and opens a session.
	CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginOutput, error)

	// ValidateSessionToken resolves a bearer token to its session and user,
	// applying lazy expiry and the sliding-window extension.
	ValidateSessionToken(ctx context.Context, token string) (*SessionValidation, error)

	// Logout revokes the session behind the given token. Unknown tokens are a no-op.
	Logout(ctx context.Context, token string) error

	// LogoutAll revokes every session the user owns.
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// CleanupExpiredSessions removes sessions past their expiry and reports the count.
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}
