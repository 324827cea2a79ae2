package tasks_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/platform/db"
	"github.com/tasknest/tasknest/internal/shared"
	"github.com/tasknest/tasknest/internal/tasks"
)

// tickingClock advances one second on every call so creation order is observable.
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.EnsureSQLiteSchema(ctx, sqlDB))
	return sqlDB
}

func seedUser(t *testing.T, sqlDB *sql.DB, email string) int64 {
	t.Helper()
	now := time.Now().UnixMicro()
	res, err := sqlDB.Exec(`INSERT INTO users (email, password_hash, is_active, created_at, updated_at) VALUES (?, 'x', 1, ?, ?)`, email, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func newTestService(t *testing.T) (*tasks.Service, int64, int64) {
	t.Helper()
	sqlDB := openTestDB(t)
	alice := seedUser(t, sqlDB, "alice@x.com")
	bob := seedUser(t, sqlDB, "bob@x.com")
	svc := tasks.NewService(tasks.NewSQLiteRepository(sqlDB), tickingClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	return svc, alice, bob
}

func ptr[T any](v T) *T { return &v }

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, alice, _ := newTestService(t)

	created, err := svc.Create(ctx, alice, "Buy milk", ptr("2L"))
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, alice, created.UserID)
	assert.False(t, created.Completed)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	require.NotNil(t, got.Description)
	assert.Equal(t, "2L", *got.Description)

	noDesc, err := svc.Create(ctx, alice, "No description", nil)
	require.NoError(t, err)
	assert.Nil(t, noDesc.Description)
}

func TestOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	svc, alice, bob := newTestService(t)

	task, err := svc.Create(ctx, alice, "private", nil)
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, task.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Update(ctx, bob, task.ID, tasks.Patch{Title: shared.Some("stolen")})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.ToggleCompletion(ctx, bob, task.ID, true)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, bob, task.ID), shared.ErrNotFound)

	items, err := svc.List(ctx, bob, tasks.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)

	unchanged, err := svc.Get(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", unchanged.Title)
	assert.False(t, unchanged.Completed)
}

func TestListNewestFirstWithFilter(t *testing.T) {
	ctx := context.Background()
	svc, alice, _ := newTestService(t)

	first, err := svc.Create(ctx, alice, "first", nil)
	require.NoError(t, err)
	second, err := svc.Create(ctx, alice, "second", nil)
	require.NoError(t, err)
	third, err := svc.Create(ctx, alice, "third", nil)
	require.NoError(t, err)

	_, err = svc.ToggleCompletion(ctx, alice, second.ID, true)
	require.NoError(t, err)

	all, err := svc.List(ctx, alice, tasks.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	done, err := svc.List(ctx, alice, tasks.ListFilter{Completed: ptr(true)})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, second.ID, done[0].ID)

	open, err := svc.List(ctx, alice, tasks.ListFilter{Completed: ptr(false)})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, third.ID, open[0].ID)
	assert.Equal(t, first.ID, open[1].ID)
}

func TestPartialUpdate(t *testing.T) {
	ctx := context.Background()
	svc, alice, _ := newTestService(t)

	task, err := svc.Create(ctx, alice, "draft", ptr("notes"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, alice, task.ID, tasks.Patch{Title: shared.Some("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "notes", *updated.Description)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))

	cleared, err := svc.Update(ctx, alice, task.ID, tasks.Patch{Description: shared.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.Equal(t, "final", cleared.Title)

	stored, err := svc.Get(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, cleared, stored)

	noop, err := svc.Update(ctx, alice, task.ID, tasks.Patch{})
	require.NoError(t, err)
	assert.Equal(t, stored.UpdatedAt, noop.UpdatedAt)
}

func TestToggleCompletionIsExplicit(t *testing.T) {
	ctx := context.Background()
	svc, alice, _ := newTestService(t)

	task, err := svc.Create(ctx, alice, "toggle me", nil)
	require.NoError(t, err)

	for _, want := range []bool{true, true, false, false} {
		got, err := svc.ToggleCompletion(ctx, alice, task.ID, want)
		require.NoError(t, err)
		assert.Equal(t, want, got.Completed)
	}
}

func TestDeleteTwice(t *testing.T) {
	ctx := context.Background()
	svc, alice, _ := newTestService(t)

	task, err := svc.Create(ctx, alice, "temp", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, alice, task.ID))
	assert.ErrorIs(t, svc.Delete(ctx, alice, task.ID), shared.ErrNotFound)

	_, err = svc.Get(ctx, alice, task.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	svc, alice, _ := newTestService(t)

	cases := []struct {
		name  string
		title string
		desc  *string
		field string
	}{
		{"empty title", "", nil, "title"},
		{"long title", strings.Repeat("a", tasks.MaxTitleLength+1), nil, "title"},
		{"long description", "ok", ptr(strings.Repeat("d", tasks.MaxDescriptionLength+1)), "description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, alice, tc.title, tc.desc)
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	_, err := svc.Create(ctx, alice, strings.Repeat("\u00e9", tasks.MaxTitleLength), nil)
	require.NoError(t, err, "limits count characters, not bytes")

	task, err := svc.Create(ctx, alice, "valid", nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, alice, task.ID, tasks.Patch{Title: shared.Null[string]()})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Update(ctx, alice, task.ID, tasks.Patch{Completed: shared.Null[bool]()})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Update(ctx, alice, task.ID, tasks.Patch{Title: shared.Some("")})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Update(ctx, alice, task.ID, tasks.Patch{Title: shared.Some(strings.Repeat("a", tasks.MaxTitleLength+1))})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestTextIsStoredAsSent(t *testing.T) {
	ctx := context.Background()
	svc, alice, _ := newTestService(t)

	// U+0958 decomposes to two code points under canonical normalisation.
	qa := "\u0958"
	cases := []struct {
		name  string
		title string
		desc  *string
	}{
		{"whitespace title", "   ", nil},
		{"single decomposable character", qa, ptr(qa)},
		{"title at limit with decomposable characters", strings.Repeat(qa, tasks.MaxTitleLength), nil},
		{"combining sequence at limit", strings.Repeat("e\u0301", tasks.MaxTitleLength/2), nil},
		{"description at limit", "d", ptr(strings.Repeat(qa, tasks.MaxDescriptionLength))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			created, err := svc.Create(ctx, alice, tc.title, tc.desc)
			require.NoError(t, err)
			assert.Equal(t, tc.title, created.Title)
			assert.Equal(t, tc.desc, created.Description)

			stored, err := svc.Get(ctx, alice, created.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.title, stored.Title)
		})
	}

	task, err := svc.Create(ctx, alice, "plain", nil)
	require.NoError(t, err)
	updated, err := svc.Update(ctx, alice, task.ID, tasks.Patch{Title: shared.Some(strings.Repeat(qa, tasks.MaxTitleLength))})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat(qa, tasks.MaxTitleLength), updated.Title)
}

func TestNonPositiveIDs(t *testing.T) {
	ctx := context.Background()
	svc, alice, _ := newTestService(t)

	_, err := svc.Create(ctx, 0, "x", nil)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)

	_, err = svc.Get(ctx, alice, 0)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Get(ctx, alice, -3)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

type failingRepo struct {
	tasks.Repository
	err error
}

func (f failingRepo) Get(context.Context, int64, int64) (*tasks.Task, error) { return nil, f.err }
func (f failingRepo) Delete(context.Context, int64, int64) error             { return f.err }

func TestStoreFailuresAreWrapped(t *testing.T) {
	boom := errors.New("disk full")
	svc := tasks.NewService(failingRepo{err: boom}, nil)

	_, err := svc.Get(context.Background(), 1, 1)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, shared.ErrNotFound)

	err = svc.Delete(context.Background(), 1, 1)
	require.ErrorIs(t, err, boom)
}
