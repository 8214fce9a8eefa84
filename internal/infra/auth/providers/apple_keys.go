package providers

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"sync"
	"time"

	"saasbase/internal/domain/service"

	"github.com/pkg/errors"
)

const appleKeysTTL = 24 * time.Hour

// appleKeySet caches Apple's public signing keys. Keys rotate rarely; the
// cache refreshes on TTL expiry or when an identity token references an
// unknown kid, which covers rotation without a background job.
type appleKeySet struct {
	client  *http.Client
	keysURL string

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func newAppleKeySet(client *http.Client, keysURL string) *appleKeySet {
	return &appleKeySet{
		client:  client,
		keysURL: keysURL,
		keys:    make(map[string]*rsa.PublicKey),
	}
}

// Key returns the RSA public key for the given kid, refreshing the cache when
// the kid is unknown or the cached set is stale.
func (s *appleKeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	key, ok := s.keys[kid]
	fresh := time.Since(s.fetchedAt) < appleKeysTTL
	s.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	key, ok = s.keys[kid]
	s.mu.RUnlock()

	if !ok {
		return nil, errors.Errorf("no Apple signing key with kid %q", kid)
	}

	return key, nil
}

func (s *appleKeySet) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.keysURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create Apple keys request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(service.ErrProviderUnavailable, "apple keys transport failure: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(service.ErrProviderUnavailable, "apple keys endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return errors.Wrap(service.ErrProviderUnavailable, "failed to decode Apple keys response")
	}

	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, jwk := range payload.Keys {
		if jwk.Kty != "RSA" {
			continue
		}

		key, err := parseRSAKey(jwk.N, jwk.E)
		if err != nil {
			return errors.Wrapf(err, "failed to parse Apple key %q", jwk.Kid)
		}
		keys[jwk.Kid] = key
	}

	s.mu.Lock()
	s.keys = keys
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return nil
}

func parseRSAKey(modulus, exponent string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(modulus)
	if err != nil {
		return nil, errors.Wrap(err, "invalid modulus encoding")
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(exponent)
	if err != nil {
		return nil, errors.Wrap(err, "invalid exponent encoding")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
