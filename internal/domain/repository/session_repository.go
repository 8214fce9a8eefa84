package repository

import (
	"context"
	"errors"
	"time"

	"saasbase/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when no session exists for a derived identifier.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines the operations for session persistence.
// Sessions are keyed by the hash of the bearer token; the raw token never
// reaches this layer.
type SessionRepository interface {
	// Create persists a new session record.
	Create(ctx context.Context, session *entity.Session) error

	// FindByID retrieves a session by its derived identifier.
	FindByID(ctx context.Context, id string) (*entity.Session, error)

	// UpdateExpiresAt persists a sliding-window extension of a session's lifetime.
	UpdateExpiresAt(ctx context.Context, id string, expiresAt time.Time) error

	// Delete removes a session by its identifier. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes all sessions owned by a user (bulk revoke).
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes every session whose expiry is at or before the given
	// instant and reports how many rows were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
