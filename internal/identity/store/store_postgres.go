package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"circles/internal/identity/models"
	dErrors "circles/pkg/domain-errors"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ UserStore = (*PostgresStore)(nil)

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		user.Username, user.Email, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (models.User, error) {
	return s.findUser(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findUser(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`, username)
}

func (s *PostgresStore) findUser(ctx context.Context, query string, arg any) (models.User, error) {
	var user models.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) Update(ctx context.Context, user models.User) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET username = $2, email = $3, password_hash = $4 WHERE id = $1`,
		user.ID, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, profile models.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, is_online, terms_accepted, last_login_device)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET is_online = $2, terms_accepted = $3, last_login_device = $4`,
		profile.UserID, profile.IsOnline, profile.TermsAccepted, profile.LastLoginDevice)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindProfile(ctx context.Context, userID int64) (models.Profile, error) {
	var profile models.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, is_online, terms_accepted, last_login_device
		 FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&profile.UserID, &profile.IsOnline, &profile.TermsAccepted, &profile.LastLoginDevice)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("find profile: %w", err)
	}
	return profile, nil
}
