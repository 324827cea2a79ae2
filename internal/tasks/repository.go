package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasknest/tasknest/internal/platform/db"
	"github.com/tasknest/tasknest/internal/shared"
)

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a task and returns it with its id.
func (r *PGRepository) Create(ctx context.Context, task Task) (*Task, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+taskColumns,
		task.UserID, task.Title, task.Description, task.Completed, task.CreatedAt, task.UpdatedAt)
	return scanPGTask(row)
}

// List returns tasks for userID ordered newest first.
func (r *PGRepository) List(ctx context.Context, userID int64, filter ListFilter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}
	if filter.Completed != nil {
		query += ` AND completed = $2`
		args = append(args, *filter.Completed)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Task
	for rows.Next() {
		task, err := scanPGTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *task)
	}
	return items, rows.Err()
}

// Get fetches one task owned by userID.
func (r *PGRepository) Get(ctx context.Context, userID, taskID int64) (*Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	return scanPGTask(row)
}

// Update locks the row, applies patch and writes it back in one transaction.
func (r *PGRepository) Update(ctx context.Context, userID, taskID int64, patch Patch, now time.Time) (*Task, error) {
	var updated *Task
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`, taskID, userID)
		task, err := scanPGTask(row)
		if err != nil {
			return err
		}
		if !patch.Apply(task, now) {
			updated = task
			return nil
		}
		row = tx.QueryRow(ctx,
			`UPDATE tasks SET title = $1, description = $2, completed = $3, updated_at = $4
			 WHERE id = $5 AND user_id = $6
			 RETURNING `+taskColumns,
			task.Title, task.Description, task.Completed, task.UpdatedAt, taskID, userID)
		updated, err = scanPGTask(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes a task owned by userID.
func (r *PGRepository) Delete(ctx context.Context, userID, taskID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPGTask(row pgx.Row) (*Task, error) {
	var t Task
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

var _ Repository = (*PGRepository)(nil)
