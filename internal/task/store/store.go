package store

import (
	"context"

	"circles/internal/task/models"
	dErrors "circles/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// TaskStore persists tasks and their checklist items.
type TaskStore interface {
	// Create inserts the task and assigns its ID.
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (models.Task, error)
	Update(ctx context.Context, task models.Task) error
	Delete(ctx context.Context, id int64) error
	ListByCircle(ctx context.Context, circleID int64) ([]models.Task, error)

	// AddChecklistItem inserts the item and assigns its ID.
	AddChecklistItem(ctx context.Context, item *models.ChecklistItem) error
	FindChecklistItem(ctx context.Context, itemID, taskID int64) (models.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, item models.ChecklistItem) error
	ListChecklistItems(ctx context.Context, taskID int64) ([]models.ChecklistItem, error)
}
