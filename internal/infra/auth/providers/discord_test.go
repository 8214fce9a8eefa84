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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiscord(t *testing.T, handler http.Handler) *Discord {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	d := NewDiscord(config.OAuthClient{ClientID: "dc-client", ClientSecret: "dc-secret"}, server.Client())
	d.tokenURL = server.URL + "/api/oauth2/token"
	d.userURL = server.URL + "/api/users/@me"

	return d
}

func TestDiscord_AuthorizationURL(t *testing.T) {
	d := NewDiscord(config.OAuthClient{ClientID: "dc-client"}, http.DefaultClient)

	raw, err := d.AuthorizationURL(service.AuthorizationRequest{
		State:       "state-789",
		RedirectURI: "https://app.example.com/api/login/discord/callback",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "discord.com", parsed.Host)
	assert.Equal(t, "identify email", parsed.Query().Get("scope"))
	assert.Equal(t, "state-789", parsed.Query().Get("state"))
}

func TestDiscord_Exchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "dc-code", r.PostForm.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"dc-at","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer dc-at", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "80351110224678912",
			"username": "nelly",
			"global_name": "Nelly",
			"avatar": "8342729096ea3675442027381ff50dfe",
			"email": "nelly@example.com",
			"verified": true
		}`))
	})

	d := newTestDiscord(t, mux)

	identity, err := d.Exchange(context.Background(), service.ExchangeRequest{Code: "dc-code"})
	require.NoError(t, err)

	assert.Equal(t, entity.ProviderDiscord, identity.Provider)
	assert.Equal(t, "80351110224678912", identity.ProviderUserID)
	assert.Equal(t, "Nelly", identity.Name)
	assert.Equal(t, "nelly@example.com", identity.Email)
	assert.Equal(t,
		"https://cdn.discordapp.com/avatars/80351110224678912/8342729096ea3675442027381ff50dfe.png",
		identity.AvatarURL)
	assert.True(t, identity.EmailVerified)
}

func TestDiscord_Exchange_NoAvatar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"dc-at","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "42", "username": "nelly", "avatar": null, "email": "n@example.com", "verified": false}`))
	})

	d := newTestDiscord(t, mux)

	identity, err := d.Exchange(context.Background(), service.ExchangeRequest{Code: "dc-code"})
	require.NoError(t, err)

	assert.Equal(t, "nelly", identity.Name)
	assert.Empty(t, identity.AvatarURL)
	assert.False(t, identity.EmailVerified)
}
