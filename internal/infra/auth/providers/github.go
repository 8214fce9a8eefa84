package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"saasbase/config"
	"saasbase/internal/domain/entity"
	"saasbase/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	githubAuthURL   = "https://github.com/login/oauth/authorize"
	githubTokenURL  = "https://github.com/login/oauth/access_token"
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"

	githubScopes = "user:email"
)

// GitHub implements the adapter for GitHub sign-in. GitHub users may hide
// their email from the profile endpoint, in which case the adapter falls back
// to the emails endpoint and picks the primary address.
type GitHub struct {
	clientID     string
	clientSecret string
	client       *http.Client

	authURL   string
	tokenURL  string
	userURL   string
	emailsURL string
}

// NewGitHub creates the GitHub adapter.
func NewGitHub(cfg config.OAuthClient, client *http.Client) *GitHub {
	return &GitHub{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		client:       client,
		authURL:      githubAuthURL,
		tokenURL:     githubTokenURL,
		userURL:      githubUserURL,
		emailsURL:    githubEmailsURL,
	}
}

func (g *GitHub) Name() entity.Provider {
	return entity.ProviderGitHub
}

func (g *GitHub) AuthorizationURL(req service.AuthorizationRequest) (string, error) {
	params := url.Values{}
	params.Set("client_id", g.clientID)
	params.Set("redirect_uri", req.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", githubScopes)
	params.Set("state", req.State)

	return g.authURL + "?" + params.Encode(), nil
}

func (g *GitHub) Exchange(ctx context.Context, req service.ExchangeRequest) (*service.Identity, error) {
	form := url.Values{}
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", req.Code)
	form.Set("redirect_uri", req.RedirectURI)

	token, err := exchangeToken(ctx, g.client, g.tokenURL, form)
	if err != nil {
		return nil, err
	}

	var profile struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := fetchJSON(ctx, g.client, g.userURL, token.AccessToken, &profile); err != nil {
		return nil, err
	}

	if profile.ID == 0 {
		return nil, errors.Wrap(service.ErrProviderUnavailable, "github user response missing id")
	}

	name := profile.Name
	if name == "" {
		name = profile.Login
	}

	email := profile.Email
	emailVerified := email != ""
	if email == "" {
		email, emailVerified, err = g.primaryEmail(ctx, token.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	return &service.Identity{
		Provider:       entity.ProviderGitHub,
		ProviderUserID: strconv.FormatInt(profile.ID, 10),
		Email:          email,
		Name:           name,
		AvatarURL:      profile.AvatarURL,
		EmailVerified:  emailVerified,
	}, nil
}

// primaryEmail resolves the user's primary address via the emails endpoint.
func (g *GitHub) primaryEmail(ctx context.Context, accessToken string) (string, bool, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := fetchJSON(ctx, g.client, g.emailsURL, accessToken, &emails); err != nil {
		return "", false, err
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, e.Verified, nil
		}
	}

	return "", false, nil
}
