package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"saasbase/internal/domain/service"

	"github.com/pkg/errors"
)

// tokenResponse is the common shape of an OAuth2 token endpoint reply. Only
// the fields the adapters consume are decoded.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IDToken     string `json:"id_token"`
}

// exchangeToken redeems an authorization code at the given token endpoint.
// A 4xx reply means the provider rejected the grant; transport failures and
// 5xx replies mean the provider could not be reached. Both cases collapse
// into the shared sentinels so callers can map them to HTTP statuses.
func exchangeToken(ctx context.Context, client *http.Client, tokenURL string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create token exchange request")
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// GitHub replies with form-encoded bodies unless JSON is requested
	// explicitly; the other providers ignore the header.
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(service.ErrProviderUnavailable, "token exchange transport failure: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(service.ErrProviderUnavailable, "failed to read token response")
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, errors.Wrapf(service.ErrProviderUnavailable, "token endpoint returned %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, errors.Wrapf(service.ErrInvalidGrant, "token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, errors.Wrap(service.ErrProviderUnavailable, "failed to decode token response")
	}

	// GitHub reports grant errors inside a 200 body.
	var soft struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &soft); err == nil && soft.Error != "" {
		return nil, errors.Wrapf(service.ErrInvalidGrant, "token endpoint error: %s", soft.Error)
	}

	return &token, nil
}

// fetchJSON performs an authorized GET against a provider API and decodes the
// JSON body into out. Non-2xx replies map onto ErrProviderUnavailable since a
// freshly issued access token should never be rejected.
func fetchJSON(ctx context.Context, client *http.Client, apiURL, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create provider API request")
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(service.ErrProviderUnavailable, "provider API transport failure: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(service.ErrProviderUnavailable, "provider API returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(service.ErrProviderUnavailable, "failed to decode provider API response")
	}

	return nil
}
