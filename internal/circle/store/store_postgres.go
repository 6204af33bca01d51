package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"circles/internal/circle/models"
)

// PostgresStore persists circles in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ CircleStore = (*PostgresStore)(nil)

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, circle *models.Circle) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO circles (name, description, admin_id, invite_code)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		circle.Name, circle.Description, circle.AdminID, circle.InviteCode,
	).Scan(&circle.ID, &circle.CreatedAt)
	if err != nil {
		return fmt.Errorf("create circle: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (models.Circle, error) {
	return s.findCircle(ctx,
		`SELECT id, name, description, admin_id, invite_code, created_at
		 FROM circles WHERE id = $1`, id)
}

func (s *PostgresStore) FindByInviteCode(ctx context.Context, code string) (models.Circle, error) {
	return s.findCircle(ctx,
		`SELECT id, name, description, admin_id, invite_code, created_at
		 FROM circles WHERE invite_code = $1`, code)
}

func (s *PostgresStore) findCircle(ctx context.Context, query string, arg any) (models.Circle, error) {
	var circle models.Circle
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&circle.ID, &circle.Name, &circle.Description, &circle.AdminID,
		&circle.InviteCode, &circle.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Circle{}, ErrNotFound
	}
	if err != nil {
		return models.Circle{}, fmt.Errorf("find circle: %w", err)
	}
	return circle, nil
}

func (s *PostgresStore) AddMember(ctx context.Context, circleID, userID int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO circle_members (circle_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		circleID, userID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveMember(ctx context.Context, circleID, userID int64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM circle_members WHERE circle_id = $1 AND user_id = $2`,
		circleID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsMember(ctx context.Context, circleID, userID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM circle_members WHERE circle_id = $1 AND user_id = $2)`,
		circleID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) MemberIDs(ctx context.Context, circleID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM circle_members WHERE circle_id = $1 ORDER BY user_id`,
		circleID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) CirclesOf(ctx context.Context, userID int64) ([]models.Circle, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.name, c.description, c.admin_id, c.invite_code, c.created_at
		 FROM circles c
		 JOIN circle_members m ON m.circle_id = c.id
		 WHERE m.user_id = $1
		 ORDER BY c.id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	defer rows.Close()

	var out []models.Circle
	for rows.Next() {
		var circle models.Circle
		if err := rows.Scan(&circle.ID, &circle.Name, &circle.Description,
			&circle.AdminID, &circle.InviteCode, &circle.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan circle: %w", err)
		}
		out = append(out, circle)
	}
	return out, rows.Err()
}
