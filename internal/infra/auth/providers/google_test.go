package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"saasbase/config"
	"saasbase/internal/domain/entity"
	"saasbase/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGoogle(t *testing.T, handler http.Handler) *Google {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g := NewGoogle(config.OAuthClient{ClientID: "google-client", ClientSecret: "google-secret"}, server.Client())
	g.tokenURL = server.URL + "/token"
	g.userInfoURL = server.URL + "/userinfo"

	return g
}

func TestGoogle_AuthorizationURL(t *testing.T) {
	g := NewGoogle(config.OAuthClient{ClientID: "google-client"}, http.DefaultClient)

	raw, err := g.AuthorizationURL(service.AuthorizationRequest{
		State:         "state-123",
		RedirectURI:   "https://app.example.com/api/login/google/callback",
		CodeChallenge: "challenge-abc",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", parsed.Host)

	query := parsed.Query()
	assert.Equal(t, "google-client", query.Get("client_id"))
	assert.Equal(t, "https://app.example.com/api/login/google/callback", query.Get("redirect_uri"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "openid profile email", query.Get("scope"))
	assert.Equal(t, "state-123", query.Get("state"))
	assert.Equal(t, "challenge-abc", query.Get("code_challenge"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
}

func TestGoogle_AuthorizationURL_RequiresChallenge(t *testing.T) {
	g := NewGoogle(config.OAuthClient{ClientID: "google-client"}, http.DefaultClient)

	_, err := g.AuthorizationURL(service.AuthorizationRequest{State: "s", RedirectURI: "https://x/cb"})
	assert.Error(t, err)
}

func TestGoogle_Exchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		assert.Equal(t, "verifier-xyz", r.PostForm.Get("code_verifier"))
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"sub": "108123456789",
			"email": "jane@example.com",
			"email_verified": true,
			"name": "Jane Doe",
			"picture": "https://lh3.example.com/photo.jpg"
		}`))
	})

	g := newTestGoogle(t, mux)

	identity, err := g.Exchange(context.Background(), service.ExchangeRequest{
		Code:         "auth-code",
		RedirectURI:  "https://app.example.com/api/login/google/callback",
		CodeVerifier: "verifier-xyz",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.ProviderGoogle, identity.Provider)
	assert.Equal(t, "108123456789", identity.ProviderUserID)
	assert.Equal(t, "jane@example.com", identity.Email)
	assert.Equal(t, "Jane Doe", identity.Name)
	assert.Equal(t, "https://lh3.example.com/photo.jpg", identity.AvatarURL)
	assert.True(t, identity.EmailVerified)
}

func TestGoogle_Exchange_RejectedCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	g := newTestGoogle(t, mux)

	_, err := g.Exchange(context.Background(), service.ExchangeRequest{Code: "stale-code"})
	assert.True(t, errors.Is(err, service.ErrInvalidGrant))
}

func TestGoogle_Exchange_ProviderDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	g := newTestGoogle(t, mux)

	_, err := g.Exchange(context.Background(), service.ExchangeRequest{Code: "auth-code"})
	assert.True(t, errors.Is(err, service.ErrProviderUnavailable))
}
