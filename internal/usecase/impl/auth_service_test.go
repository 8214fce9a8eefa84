package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"saasbase/internal/domain/entity"
	domainerrors "saasbase/internal/domain/errors"
	"saasbase/internal/domain/service"
	infraauth "saasbase/internal/infra/auth"
	"saasbase/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(store *memStore, providers map[entity.Provider]service.OAuthProvider) *authService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewAuthService(
		&fakeProviders{byName: providers},
		infraauth.NewTokenService(),
		&fakeTxManager{store: store},
		nopRecorder{},
		logger,
	)

	return svc.(*authService)
}

func googleIdentity() *service.Identity {
	return &service.Identity{
		Provider:       entity.ProviderGoogle,
		ProviderUserID: "108123456789",
		Email:          "jane@example.com",
		Name:           "Jane Doe",
		AvatarURL:      "https://lh3.example.com/photo.jpg",
		EmailVerified:  true,
	}
}

func TestAuthService_AuthorizationURL_Google(t *testing.T) {
	provider := &fakeProvider{name: entity.ProviderGoogle}
	svc := newTestAuthService(newMemStore(), map[entity.Provider]service.OAuthProvider{
		entity.ProviderGoogle: provider,
	})

	output, err := svc.AuthorizationURL(context.Background(), usecase.BeginLoginInput{
		Provider:    entity.ProviderGoogle,
		RedirectURI: "https://app.example.com/api/login/google/callback",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, output.State)
	assert.NotEmpty(t, output.CodeVerifier)
	assert.Contains(t, output.URL, output.State)

	// The adapter must have seen the state, redirect URI and a PKCE challenge.
	assert.Equal(t, output.State, provider.lastAuthReq.State)
	assert.Equal(t, "https://app.example.com/api/login/google/callback", provider.lastAuthReq.RedirectURI)
	assert.NotEmpty(t, provider.lastAuthReq.CodeChallenge)
	assert.NotEqual(t, output.CodeVerifier, provider.lastAuthReq.CodeChallenge)
}

func TestAuthService_AuthorizationURL_NoPKCEForGitHub(t *testing.T) {
	provider := &fakeProvider{name: entity.ProviderGitHub}
	svc := newTestAuthService(newMemStore(), map[entity.Provider]service.OAuthProvider{
		entity.ProviderGitHub: provider,
	})

	output, err := svc.AuthorizationURL(context.Background(), usecase.BeginLoginInput{
		Provider:    entity.ProviderGitHub,
		RedirectURI: "https://app.example.com/api/login/github/callback",
	})
	require.NoError(t, err)

	assert.Empty(t, output.CodeVerifier)
	assert.Empty(t, provider.lastAuthReq.CodeChallenge)
}

func TestAuthService_AuthorizationURL_UnsupportedProvider(t *testing.T) {
	svc := newTestAuthService(newMemStore(), nil)

	_, err := svc.AuthorizationURL(context.Background(), usecase.BeginLoginInput{
		Provider: entity.Provider("myspace"),
	})
	assert.True(t, errors.Is(err, domainerrors.ErrUnsupportedProvider))
}

func TestAuthService_CompleteLogin_FirstLogin(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{name: entity.ProviderGoogle, identity: googleIdentity()}
	svc := newTestAuthService(store, map[entity.Provider]service.OAuthProvider{
		entity.ProviderGoogle: provider,
	})

	output, err := svc.CompleteLogin(context.Background(), usecase.CompleteLoginInput{
		Provider:     entity.ProviderGoogle,
		Code:         "auth-code",
		RedirectURI:  "https://app.example.com/api/login/google/callback",
		CodeVerifier: "verifier",
	})
	require.NoError(t, err)

	assert.True(t, output.Created)
	assert.NotEmpty(t, output.Token)
	assert.Equal(t, "jane@example.com", output.User.Email)
	assert.Equal(t, output.User.ID, output.Session.UserID)

	// The stored session id is the token's digest, never the token itself.
	assert.NotEqual(t, output.Token, output.Session.ID)
	assert.Contains(t, store.sessions, output.Session.ID)
	assert.NotContains(t, store.sessions, output.Token)

	// The exchange saw the verifier and code.
	assert.Equal(t, "verifier", provider.lastExchangeReq.CodeVerifier)
	assert.Equal(t, "auth-code", provider.lastExchangeReq.Code)
}

func TestAuthService_CompleteLogin_ReturningUser(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{name: entity.ProviderGoogle, identity: googleIdentity()}
	svc := newTestAuthService(store, map[entity.Provider]service.OAuthProvider{
		entity.ProviderGoogle: provider,
	})

	first, err := svc.CompleteLogin(context.Background(), usecase.CompleteLoginInput{
		Provider: entity.ProviderGoogle, Code: "code-1",
	})
	require.NoError(t, err)

	second, err := svc.CompleteLogin(context.Background(), usecase.CompleteLoginInput{
		Provider: entity.ProviderGoogle, Code: "code-2",
	})
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Len(t, store.users, 1)
	assert.Len(t, store.sessions, 2)
}

func TestAuthService_CompleteLogin_LosesFirstLoginRace(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{name: entity.ProviderGoogle, identity: googleIdentity()}
	svc := newTestAuthService(store, map[entity.Provider]service.OAuthProvider{
		entity.ProviderGoogle: provider,
	})

	// Another request already created the user and account.
	winner, err := svc.CompleteLogin(context.Background(), usecase.CompleteLoginInput{
		Provider: entity.ProviderGoogle, Code: "winner-code",
	})
	require.NoError(t, err)

	// This request's initial lookup misses, its insert collides, and it must
	// recover by re-reading the winner's account.
	store.missNextAccountLookup = true

	loser, err := svc.CompleteLogin(context.Background(), usecase.CompleteLoginInput{
		Provider: entity.ProviderGoogle, Code: "loser-code",
	})
	require.NoError(t, err)

	assert.False(t, loser.Created)
	assert.Equal(t, winner.User.ID, loser.User.ID)
	assert.Len(t, store.users, 1)
	assert.Len(t, store.accounts, 1)
}

func TestAuthService_CompleteLogin_InvalidGrant(t *testing.T) {
	provider := &fakeProvider{name: entity.ProviderGoogle, exchangeErr: service.ErrInvalidGrant}
	svc := newTestAuthService(newMemStore(), map[entity.Provider]service.OAuthProvider{
		entity.ProviderGoogle: provider,
	})

	_, err := svc.CompleteLogin(context.Background(), usecase.CompleteLoginInput{
		Provider: entity.ProviderGoogle, Code: "stale",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidGrant))
}

func TestAuthService_CompleteLogin_ProviderUnavailable(t *testing.T) {
	provider := &fakeProvider{name: entity.ProviderGoogle, exchangeErr: service.ErrProviderUnavailable}
	svc := newTestAuthService(newMemStore(), map[entity.Provider]service.OAuthProvider{
		entity.ProviderGoogle: provider,
	})

	_, err := svc.CompleteLogin(context.Background(), usecase.CompleteLoginInput{
		Provider: entity.ProviderGoogle, Code: "any",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrProviderUnavailable))
}

func loginForSessionTests(t *testing.T, store *memStore) (*authService, *usecase.CompleteLoginOutput) {
	t.Helper()

	provider := &fakeProvider{name: entity.ProviderGoogle, identity: googleIdentity()}
	svc := newTestAuthService(store, map[entity.Provider]service.OAuthProvider{
		entity.ProviderGoogle: provider,
	})

	output, err := svc.CompleteLogin(context.Background(), usecase.CompleteLoginInput{
		Provider: entity.ProviderGoogle, Code: "code",
	})
	require.NoError(t, err)

	return svc, output
}

func TestAuthService_ValidateSessionToken_Fresh(t *testing.T) {
	store := newMemStore()
	svc, login := loginForSessionTests(t, store)

	validation, err := svc.ValidateSessionToken(context.Background(), login.Token)
	require.NoError(t, err)

	assert.Equal(t, login.User.ID, validation.User.ID)
	assert.Equal(t, login.Session.ID, validation.Session.ID)
	// A fresh session keeps its original expiry.
	assert.WithinDuration(t, login.Session.ExpiresAt, validation.Session.ExpiresAt, time.Second)
}

func TestAuthService_ValidateSessionToken_SlidingRefresh(t *testing.T) {
	store := newMemStore()
	svc, login := loginForSessionTests(t, store)

	// Move time past the refresh point but before expiry.
	base := time.Now()
	svc.now = func() time.Time { return base.Add(entity.SessionRefreshInterval + time.Hour) }

	validation, err := svc.ValidateSessionToken(context.Background(), login.Token)
	require.NoError(t, err)

	wantExpiry := svc.now().Add(entity.SessionMaxDuration)
	assert.WithinDuration(t, wantExpiry, validation.Session.ExpiresAt, time.Second)

	// The extension is persisted, not just returned.
	stored := store.sessions[login.Session.ID]
	assert.WithinDuration(t, wantExpiry, stored.ExpiresAt, time.Second)
}

func TestAuthService_ValidateSessionToken_Expired(t *testing.T) {
	store := newMemStore()
	svc, login := loginForSessionTests(t, store)

	base := time.Now()
	svc.now = func() time.Time { return base.Add(entity.SessionMaxDuration + time.Hour) }

	_, err := svc.ValidateSessionToken(context.Background(), login.Token)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthenticated))

	// Lazy expiry removed the row.
	assert.NotContains(t, store.sessions, login.Session.ID)
}

func TestAuthService_ValidateSessionToken_OrphanedSession(t *testing.T) {
	store := newMemStore()
	svc, login := loginForSessionTests(t, store)

	// The owner vanished; the session must be reaped on validation.
	delete(store.users, login.User.ID)

	_, err := svc.ValidateSessionToken(context.Background(), login.Token)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthenticated))
	assert.NotContains(t, store.sessions, login.Session.ID)
}

func TestAuthService_ValidateSessionToken_UnknownToken(t *testing.T) {
	svc := newTestAuthService(newMemStore(), nil)

	_, err := svc.ValidateSessionToken(context.Background(), "nosuchtokennosuchtokennosuchtoke")
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthenticated))

	_, err = svc.ValidateSessionToken(context.Background(), "")
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthenticated))
}

func TestAuthService_Logout(t *testing.T) {
	store := newMemStore()
	svc, login := loginForSessionTests(t, store)

	require.NoError(t, svc.Logout(context.Background(), login.Token))
	assert.Empty(t, store.sessions)

	// Logging out an already-revoked token is a no-op.
	require.NoError(t, svc.Logout(context.Background(), login.Token))
}

func TestAuthService_LogoutAll(t *testing.T) {
	store := newMemStore()
	svc, login := loginForSessionTests(t, store)

	// Open a second session for the same user and one for somebody else.
	_, err := svc.CompleteLogin(context.Background(), usecase.CompleteLoginInput{
		Provider: entity.ProviderGoogle, Code: "second",
	})
	require.NoError(t, err)

	otherID := uuid.New()
	store.users[otherID] = &entity.User{ID: otherID}
	store.sessions["other-session"] = &entity.Session{
		ID: "other-session", UserID: otherID, ExpiresAt: time.Now().Add(time.Hour),
	}

	require.NoError(t, svc.LogoutAll(context.Background(), login.User.ID))

	assert.Len(t, store.sessions, 1)
	assert.Contains(t, store.sessions, "other-session")
}

func TestAuthService_CleanupExpiredSessions(t *testing.T) {
	store := newMemStore()
	svc, login := loginForSessionTests(t, store)

	store.sessions["stale"] = &entity.Session{
		ID: "stale", UserID: login.User.ID, ExpiresAt: time.Now().Add(-time.Hour),
	}

	removed, err := svc.CleanupExpiredSessions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), removed)
	assert.Contains(t, store.sessions, login.Session.ID)
	assert.NotContains(t, store.sessions, "stale")
}
