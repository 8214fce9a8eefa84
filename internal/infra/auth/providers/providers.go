// Package providers contains the concrete OAuth adapters for the supported
// identity providers. Every adapter normalizes provider payloads into the
// domain Identity shape and maps provider failures onto the shared sentinel
// errors, so the use case layer never sees provider-specific detail.
package providers

import (
	"net/http"
	"time"

	"saasbase/config"
	"saasbase/internal/domain/entity"
	"saasbase/internal/domain/service"

	"github.com/pkg/errors"
)

const exchangeTimeout = 10 * time.Second

// registry resolves adapters by provider name.
type registry struct {
	adapters map[entity.Provider]service.OAuthProvider
}

// New builds adapters for every configured provider and returns the lookup
// registry used by the login flows.
func New(cfg *config.Config) (service.OAuthProviders, error) {
	client := &http.Client{Timeout: exchangeTimeout}

	apple, err := NewApple(cfg.OAuth.Apple, client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Apple adapter")
	}

	adapters := []service.OAuthProvider{
		NewGoogle(cfg.OAuth.Google, client),
		NewGitHub(cfg.OAuth.GitHub, client),
		NewDiscord(cfg.OAuth.Discord, client),
		apple,
	}

	byName := make(map[entity.Provider]service.OAuthProvider, len(adapters))
	for _, adapter := range adapters {
		byName[adapter.Name()] = adapter
	}

	return &registry{adapters: byName}, nil
}

func (r *registry) Get(name entity.Provider) (service.OAuthProvider, bool) {
	adapter, ok := r.adapters[name]

	return adapter, ok
}
