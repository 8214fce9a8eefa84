package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"saasbase/config"
	"saasbase/internal/domain/entity"
	"saasbase/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	discordAuthURL  = "https://discord.com/oauth2/authorize"
	discordTokenURL = "https://discord.com/api/oauth2/token"
	discordUserURL  = "https://discord.com/api/users/@me"

	discordScopes = "identify email"

	discordCDNBase = "https://cdn.discordapp.com"
)

// Discord implements the adapter for Discord sign-in.
type Discord struct {
	clientID     string
	clientSecret string
	client       *http.Client

	authURL  string
	tokenURL string
	userURL  string
}

// NewDiscord creates the Discord adapter.
func NewDiscord(cfg config.OAuthClient, client *http.Client) *Discord {
	return &Discord{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		client:       client,
		authURL:      discordAuthURL,
		tokenURL:     discordTokenURL,
		userURL:      discordUserURL,
	}
}

func (d *Discord) Name() entity.Provider {
	return entity.ProviderDiscord
}

func (d *Discord) AuthorizationURL(req service.AuthorizationRequest) (string, error) {
	params := url.Values{}
	params.Set("client_id", d.clientID)
	params.Set("redirect_uri", req.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", discordScopes)
	params.Set("state", req.State)

	return d.authURL + "?" + params.Encode(), nil
}

func (d *Discord) Exchange(ctx context.Context, req service.ExchangeRequest) (*service.Identity, error) {
	form := url.Values{}
	form.Set("client_id", d.clientID)
	form.Set("client_secret", d.clientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", req.Code)
	form.Set("redirect_uri", req.RedirectURI)

	token, err := exchangeToken(ctx, d.client, d.tokenURL, form)
	if err != nil {
		return nil, err
	}

	var profile struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Avatar     string `json:"avatar"`
		Email      string `json:"email"`
		Verified   bool   `json:"verified"`
	}
	if err := fetchJSON(ctx, d.client, d.userURL, token.AccessToken, &profile); err != nil {
		return nil, err
	}

	if profile.ID == "" {
		return nil, errors.Wrap(service.ErrProviderUnavailable, "discord user response missing id")
	}

	name := profile.GlobalName
	if name == "" {
		name = profile.Username
	}

	var avatarURL string
	if profile.Avatar != "" {
		avatarURL = fmt.Sprintf("%s/avatars/%s/%s.png", discordCDNBase, profile.ID, profile.Avatar)
	}

	return &service.Identity{
		Provider:       entity.ProviderDiscord,
		ProviderUserID: profile.ID,
		Email:          profile.Email,
		Name:           name,
		AvatarURL:      avatarURL,
		EmailVerified:  profile.Verified,
	}, nil
}
