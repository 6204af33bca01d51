package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"circles/internal/task/models"
)

// PostgresStore persists tasks in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ TaskStore = (*PostgresStore)(nil)

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, task *models.Task) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (circle_id, title, description, assignee_id, created_by, status, kind)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		task.CircleID, task.Title, task.Description, task.AssigneeID,
		task.CreatedBy, task.Status, task.Kind,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	err := s.pool.QueryRow(ctx,
		`SELECT id, circle_id, title, description, assignee_id, created_by, status, kind, created_at
		 FROM tasks WHERE id = $1`, id,
	).Scan(&task.ID, &task.CircleID, &task.Title, &task.Description,
		&task.AssigneeID, &task.CreatedBy, &task.Status, &task.Kind, &task.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

func (s *PostgresStore) Update(ctx context.Context, task models.Task) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks
		 SET title = $2, description = $3, assignee_id = $4, status = $5, kind = $6
		 WHERE id = $1`,
		task.ID, task.Title, task.Description, task.AssigneeID, task.Status, task.Kind)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByCircle(ctx context.Context, circleID int64) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, circle_id, title, description, assignee_id, created_by, status, kind, created_at
		 FROM tasks WHERE circle_id = $1
		 ORDER BY id`,
		circleID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.CircleID, &task.Title, &task.Description,
			&task.AssigneeID, &task.CreatedBy, &task.Status, &task.Kind, &task.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO checklist_items (task_id, content, is_checked)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		item.TaskID, item.Content, item.IsChecked,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("add checklist item: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindChecklistItem(ctx context.Context, itemID, taskID int64) (models.ChecklistItem, error) {
	var item models.ChecklistItem
	err := s.pool.QueryRow(ctx,
		`SELECT id, task_id, content, is_checked
		 FROM checklist_items WHERE id = $1 AND task_id = $2`,
		itemID, taskID,
	).Scan(&item.ID, &item.TaskID, &item.Content, &item.IsChecked)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ChecklistItem{}, ErrNotFound
	}
	if err != nil {
		return models.ChecklistItem{}, fmt.Errorf("find checklist item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateChecklistItem(ctx context.Context, item models.ChecklistItem) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE checklist_items SET content = $2, is_checked = $3 WHERE id = $1`,
		item.ID, item.Content, item.IsChecked)
	if err != nil {
		return fmt.Errorf("update checklist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListChecklistItems(ctx context.Context, taskID int64) ([]models.ChecklistItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, content, is_checked
		 FROM checklist_items WHERE task_id = $1
		 ORDER BY id`,
		taskID)
	if err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	defer rows.Close()

	var out []models.ChecklistItem
	for rows.Next() {
		var item models.ChecklistItem
		if err := rows.Scan(&item.ID, &item.TaskID, &item.Content, &item.IsChecked); err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
