package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"circles/internal/message/models"
)

// PostgresStore persists messages in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ MessageStore = (*PostgresStore)(nil)

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (circle_id, sender_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		msg.CircleID, msg.SenderID, msg.Content,
	).Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCircle(ctx context.Context, circleID int64) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, circle_id, sender_id, content, created_at
		 FROM messages WHERE circle_id = $1
		 ORDER BY created_at, id`,
		circleID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.CircleID, &msg.SenderID, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveDirectMessage(ctx context.Context, msg *models.DirectMessage) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO direct_messages (sender_id, receiver_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		msg.SenderID, msg.ReceiverID, msg.Content,
	).Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		return fmt.Errorf("save direct message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListConversation(ctx context.Context, userA, userB int64) ([]models.DirectMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sender_id, receiver_id, content, created_at, is_read
		 FROM direct_messages
		 WHERE (sender_id = $1 AND receiver_id = $2)
		    OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at, id`,
		userA, userB)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	var out []models.DirectMessage
	for rows.Next() {
		var msg models.DirectMessage
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Timestamp, &msg.IsRead); err != nil {
			return nil, fmt.Errorf("scan direct message: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
