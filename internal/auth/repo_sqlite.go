package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tasknest/tasknest/internal/platform/db"
	"github.com/tasknest/tasknest/internal/shared"
)

// SQLiteRepository implements Repository over a SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs a SQLite repository.
func NewSQLiteRepository(sqlDB *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: sqlDB}
}

// FindByEmail fetches a user by exact email.
func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanSQLiteUser(row)
}

// FindByID fetches a user by id.
func (r *SQLiteRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanSQLiteUser(row)
}

// Create inserts a user and returns it with its assigned id.
func (r *SQLiteRepository) Create(ctx context.Context, user User) (*User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.IsActive, user.CreatedAt.UTC().UnixMicro(), user.UpdatedAt.UTC().UnixMicro())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("auth: insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("auth: last insert id: %w", err)
	}
	return r.FindByID(ctx, id)
}

func scanSQLiteUser(row *sql.Row) (*User, error) {
	var (
		u                    User
		createdAt, updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: scan user: %w", err)
	}
	u.CreatedAt = time.UnixMicro(createdAt).UTC()
	u.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return &u, nil
}

var _ Repository = (*SQLiteRepository)(nil)
