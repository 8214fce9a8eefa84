// Package service defines domain-level service contracts implemented by the
// infrastructure layer, keeping use cases free of provider and crypto detail.
package service

import (
	"context"
	"errors"

	"saasbase/internal/domain/entity"
)

// Provider-protocol errors. Adapters translate provider responses into these
// sentinels so the delivery layer can map them to HTTP statuses without
// inspecting provider-specific payloads.
var (
	// ErrInvalidGrant is returned when the provider rejects the authorization
	// code (expired, already used, or issued for a different redirect URI).
	ErrInvalidGrant = errors.New("provider rejected the authorization code")
	// ErrProviderUnavailable is returned for transport failures, timeouts and
	// provider-side 5xx responses during the exchange.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Identity is the normalized set of claims an adapter extracts from a provider.
type Identity struct {
	Provider       entity.Provider // Which provider asserted these claims.
	ProviderUserID string          // The provider-side subject identifier, stable per user.
	Email          string          // The user's email address as reported by the provider.
	Name           string          // Display name; may be empty for providers that do not supply one.
	AvatarURL      string          // Profile picture URL, when available.
	EmailVerified  bool            // Whether the provider asserted the email as verified.
}

// AuthorizationRequest carries the per-attempt parameters for building an
// authorization URL. The redirect URI is derived from the incoming request's
// origin so one deployment serves several environments.
type AuthorizationRequest struct {
	State         string // Anti-forgery state bound to this attempt.
	RedirectURI   string // Absolute callback URL for this attempt.
	CodeChallenge string // PKCE S256 challenge; only Google uses it.
}

// ExchangeRequest carries the parameters for redeeming an authorization code.
type ExchangeRequest struct {
	Code         string // The authorization code returned by the provider.
	RedirectURI  string // Must match the URI the code was issued for.
	CodeVerifier string // PKCE verifier; only Google uses it.
	UserPayload  string // Apple's one-time 'user' form field (first consent only); JSON.
}

// OAuthProvider is the uniform contract over the four identity providers.
// AuthorizationURL is pure and performs no I/O; Exchange talks to the provider.
type OAuthProvider interface {
	// Name returns the provider tag this adapter serves.
	Name() entity.Provider

	// AuthorizationURL builds the fully qualified consent-screen URL embedding
	// client id, redirect URI, scopes and the anti-forgery state.
	AuthorizationURL(req AuthorizationRequest) (string, error)

	// Exchange redeems an authorization code for normalized identity claims.
	// Returns ErrInvalidGrant when the provider rejects the code and
	// ErrProviderUnavailable on transport failure.
	Exchange(ctx context.Context, req ExchangeRequest) (*Identity, error)
}

// OAuthProviders resolves a provider adapter by name.
type OAuthProviders interface {
	// Get returns the adapter for the named provider, or false if unsupported.
	Get(name entity.Provider) (OAuthProvider, bool)
}
