package store

import (
	"context"

	"circles/internal/identity/models"
	dErrors "circles/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// UserStore persists users and their profiles.
type UserStore interface {
	// Create inserts the user and assigns its ID.
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Update(ctx context.Context, user models.User) error

	// SaveProfile upserts; a profile row is created on first use with
	// neutral defaults for any field not set.
	SaveProfile(ctx context.Context, profile models.Profile) error
	FindProfile(ctx context.Context, userID int64) (models.Profile, error)
}
