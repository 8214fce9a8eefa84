package repository

import (
	"context"
	"errors"

	"saasbase/internal/domain/entity"
)

// Domain-specific errors for account persistence.
var (
	// ErrAccountNotFound is returned when no account exists for a provider identity.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateAccount is returned when an account for the same
	// (provider, provider user id) pair already exists. Callers racing on a
	// first login observe this and retry as a lookup.
	ErrDuplicateAccount = errors.New("account already exists for this provider identity")
)

// AccountRepository defines the operations for provider-account persistence.
type AccountRepository interface {
	// Create persists a new provider account link.
	Create(ctx context.Context, account *entity.Account) error

	// FindByProviderUserID retrieves the account for a provider-side subject identifier.
	FindByProviderUserID(ctx context.Context, provider entity.Provider, providerUserID string) (*entity.Account, error)
}
