package store

import (
	"context"

	"circles/internal/circle/models"
	dErrors "circles/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// CircleStore persists circles and their membership sets.
type CircleStore interface {
	// Create inserts the circle and assigns its ID.
	Create(ctx context.Context, circle *models.Circle) error
	FindByID(ctx context.Context, id int64) (models.Circle, error)
	FindByInviteCode(ctx context.Context, code string) (models.Circle, error)

	AddMember(ctx context.Context, circleID, userID int64) error
	RemoveMember(ctx context.Context, circleID, userID int64) error
	IsMember(ctx context.Context, circleID, userID int64) (bool, error)
	MemberIDs(ctx context.Context, circleID int64) ([]int64, error)
	CirclesOf(ctx context.Context, userID int64) ([]models.Circle, error)
}
