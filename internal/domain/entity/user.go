// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a unique "person" or "account".
// Identity details live on Account records; a User is the local anchor they share.
type User struct {
	ID            uuid.UUID // The Global Unique Identifier (GUID) for the user.
	Email         string    // The user's primary contact email, captured from the first provider login.
	Name          string    // The user's display name as reported by the provider.
	AvatarURL     string    // URL to the user's profile picture, when the provider supplies one.
	EmailVerified bool      // Whether the provider asserted the email as verified.
	CreatedAt     time.Time // Timestamp of when this user account was created.
	UpdatedAt     time.Time // Timestamp of the last modification to this user's data.
}
