package entity

import (
	"time"

	"github.com/google/uuid"
)

// Account links one external identity to a local user.
// A user's Google login is one record, their GitHub login another.
// The (Provider, ProviderUserID) pair is unique across the system; the
// database enforces this so that two concurrent first logins with the same
// external identity cannot both create an account.
type Account struct {
	ID             uuid.UUID // The unique ID for this specific account record itself.
	UserID         uuid.UUID // Links this account to the User it belongs to.
	Provider       Provider  // The identity provider, e.g. "google", "github".
	ProviderUserID string    // The user's unique ID from the external provider (e.g. the OIDC 'sub' claim).
	CreatedAt      time.Time // Timestamp of when this provider identity was first seen.
}
