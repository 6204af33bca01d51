package store

import (
	"context"

	"circles/internal/message/models"
)

// MessageStore records chat and direct messages. Both tables are append-only
// and ordered by timestamp within their group.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	ListByCircle(ctx context.Context, circleID int64) ([]models.Message, error)

	SaveDirectMessage(ctx context.Context, msg *models.DirectMessage) error
	// ListConversation returns messages exchanged between the two users in
	// either direction, ascending by timestamp.
	ListConversation(ctx context.Context, userA, userB int64) ([]models.DirectMessage, error)
}
