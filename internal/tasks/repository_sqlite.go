package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tasknest/tasknest/internal/shared"
)

// SQLiteRepository implements Repository over SQLite. Timestamps are stored
// as unix microseconds.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs a SQLite repository.
func NewSQLiteRepository(sqlDB *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: sqlDB}
}

type sqliteQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a task and returns it with its id.
func (r *SQLiteRepository) Create(ctx context.Context, task Task) (*Task, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		task.UserID, task.Title, nullString(task.Description), task.Completed,
		task.CreatedAt.UTC().UnixMicro(), task.UpdatedAt.UTC().UnixMicro())
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return getSQLiteTask(ctx, r.db, task.UserID, id)
}

// List returns tasks for userID ordered newest first.
func (r *SQLiteRepository) List(ctx context.Context, userID int64, filter ListFilter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *filter.Completed)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Task
	for rows.Next() {
		task, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *task)
	}
	return items, rows.Err()
}

// Get fetches one task owned by userID.
func (r *SQLiteRepository) Get(ctx context.Context, userID, taskID int64) (*Task, error) {
	return getSQLiteTask(ctx, r.db, userID, taskID)
}

// Update applies patch to the stored row inside a transaction.
func (r *SQLiteRepository) Update(ctx context.Context, userID, taskID int64, patch Patch, now time.Time) (*Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	task, err := getSQLiteTask(ctx, tx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !patch.Apply(task, now) {
		return task, nil
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		task.Title, nullString(task.Description), task.Completed, task.UpdatedAt.UTC().UnixMicro(), taskID, userID); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return task, nil
}

// Delete hard-deletes a task owned by userID.
func (r *SQLiteRepository) Delete(ctx context.Context, userID, taskID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func getSQLiteTask(ctx context.Context, q sqliteQuerier, userID, taskID int64) (*Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	return scanSQLiteTask(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTask(row rowScanner) (*Task, error) {
	var (
		t                    Task
		description          sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Completed, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if description.Valid {
		desc := description.String
		t.Description = &desc
	}
	t.CreatedAt = time.UnixMicro(createdAt).UTC()
	t.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var _ Repository = (*SQLiteRepository)(nil)
