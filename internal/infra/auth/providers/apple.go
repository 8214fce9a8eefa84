package providers

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/url"
	"time"

	"saasbase/config"
	"saasbase/internal/domain/entity"
	"saasbase/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	appleAuthURL  = "https://appleid.apple.com/auth/authorize"
	appleTokenURL = "https://appleid.apple.com/auth/token"
	appleKeysURL  = "https://appleid.apple.com/auth/keys"

	appleIssuer = "https://appleid.apple.com"
	appleScopes = "name email"

	appleClientSecretTTL = 5 * time.Minute
)

// Apple implements the adapter for Sign in with Apple. Apple deviates from
// the other providers in three ways: the callback arrives as a form POST, the
// client secret is an ES256 JWT minted per exchange, and the identity claims
// live in a signed id_token instead of a userinfo endpoint. The id_token
// signature is verified against Apple's published keys before any claim is
// trusted.
type Apple struct {
	clientID   string
	teamID     string
	keyID      string
	signingKey *ecdsa.PrivateKey
	client     *http.Client
	keySet     *appleKeySet

	authURL  string
	tokenURL string
	issuer   string
}

// NewApple creates the Apple adapter. The configured private key must be a
// PEM-encoded PKCS#8 EC key downloaded from the Apple developer portal.
func NewApple(cfg config.AppleClient, client *http.Client) (*Apple, error) {
	block, _ := pem.Decode([]byte(cfg.PrivateKey))
	if block == nil {
		return nil, errors.New("apple private key is not valid PEM")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse Apple private key")
	}

	ecKey, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("apple private key is not an EC key")
	}

	return &Apple{
		clientID:   cfg.ClientID,
		teamID:     cfg.TeamID,
		keyID:      cfg.KeyID,
		signingKey: ecKey,
		client:     client,
		keySet:     newAppleKeySet(client, appleKeysURL),
		authURL:    appleAuthURL,
		tokenURL:   appleTokenURL,
		issuer:     appleIssuer,
	}, nil
}

func (a *Apple) Name() entity.Provider {
	return entity.ProviderApple
}

func (a *Apple) AuthorizationURL(req service.AuthorizationRequest) (string, error) {
	params := url.Values{}
	params.Set("client_id", a.clientID)
	params.Set("redirect_uri", req.RedirectURI)
	params.Set("response_type", "code")
	params.Set("response_mode", "form_post")
	params.Set("scope", appleScopes)
	params.Set("state", req.State)

	return a.authURL + "?" + params.Encode(), nil
}

func (a *Apple) Exchange(ctx context.Context, req service.ExchangeRequest) (*service.Identity, error) {
	secret, err := a.clientSecret()
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("client_id", a.clientID)
	form.Set("client_secret", secret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", req.Code)
	form.Set("redirect_uri", req.RedirectURI)

	token, err := exchangeToken(ctx, a.client, a.tokenURL, form)
	if err != nil {
		return nil, err
	}

	if token.IDToken == "" {
		return nil, errors.Wrap(service.ErrProviderUnavailable, "apple token response missing id_token")
	}

	claims, err := a.verifyIdentityToken(ctx, token.IDToken)
	if err != nil {
		return nil, err
	}

	identity := &service.Identity{
		Provider:       entity.ProviderApple,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.emailVerified(),
	}

	// Apple sends the user's name only on the very first consent, as a JSON
	// form field alongside the callback. It never appears again.
	if name := parseAppleUserName(req.UserPayload); name != "" {
		identity.Name = name
	}

	return identity, nil
}

// clientSecret mints the short-lived ES256 assertion Apple requires in place
// of a static client secret.
func (a *Apple) clientSecret() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    a.teamID,
		Subject:   a.clientID,
		Audience:  jwt.ClaimStrings{appleIssuer},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(appleClientSecretTTL)),
	})
	token.Header["kid"] = a.keyID

	signed, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign Apple client secret")
	}

	return signed, nil
}

type appleIdentityClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	// Apple encodes this claim as either a bool or the string "true".
	EmailVerifiedRaw any `json:"email_verified"`
}

func (c *appleIdentityClaims) emailVerified() bool {
	switch v := c.EmailVerifiedRaw.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// verifyIdentityToken checks the id_token signature against Apple's published
// keys and validates issuer, audience and expiry. A token that fails any
// check is treated as a rejected grant.
func (a *Apple) verifyIdentityToken(ctx context.Context, idToken string) (*appleIdentityClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.clientID),
		jwt.WithExpirationRequired(),
	)

	claims := &appleIdentityClaims{}
	parsed, err := parser.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("id_token missing kid header")
		}

		return a.keySet.Key(ctx, kid)
	})
	if err != nil {
		if errors.Is(err, service.ErrProviderUnavailable) {
			return nil, err
		}

		return nil, errors.Wrapf(service.ErrInvalidGrant, "apple id_token rejected: %v", err)
	}

	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.Wrap(service.ErrInvalidGrant, "apple id_token missing subject")
	}

	return claims, nil
}

// parseAppleUserName extracts a display name from the one-time user payload.
func parseAppleUserName(payload string) string {
	if payload == "" {
		return ""
	}

	var user struct {
		Name struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"name"`
	}
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		return ""
	}

	switch {
	case user.Name.FirstName != "" && user.Name.LastName != "":
		return user.Name.FirstName + " " + user.Name.LastName
	case user.Name.FirstName != "":
		return user.Name.FirstName
	default:
		return user.Name.LastName
	}
}
