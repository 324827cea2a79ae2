//go:build integration

package tasks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/platform/db"
	"github.com/tasknest/tasknest/internal/shared"
	"github.com/tasknest/tasknest/internal/tasks"
	"github.com/tasknest/tasknest/internal/testhelpers"
)

func TestPostgresRepository(t *testing.T) {
	ctx := context.Background()
	dsn := testhelpers.StartPostgres(t)

	pool, err := db.New(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.EnsurePostgresSchema(ctx, pool))
	require.NoError(t, db.EnsurePostgresSchema(ctx, pool))

	users := auth.NewRepository(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)
	alice, err := users.Create(ctx, auth.User{Email: "alice@x.com", PasswordHash: "h", IsActive: true, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	bob, err := users.Create(ctx, auth.User{Email: "bob@x.com", PasswordHash: "h", IsActive: true, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	_, err = users.Create(ctx, auth.User{Email: "alice@x.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now})
	require.ErrorIs(t, err, shared.ErrDuplicateEmail)

	svc := tasks.NewService(tasks.NewRepository(pool), tickingClock(now))

	first, err := svc.Create(ctx, alice.ID, "first", ptr("notes"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, alice.ID, "second", nil)
	require.NoError(t, err)

	got, err := svc.Get(ctx, alice.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, got.Title)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	_, err = svc.Get(ctx, bob.ID, first.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.ToggleCompletion(ctx, alice.ID, first.ID, true)
	require.NoError(t, err)

	cleared, err := svc.Update(ctx, alice.ID, first.ID, tasks.Patch{Description: shared.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.True(t, cleared.Completed)

	all, err := svc.List(ctx, alice.ID, tasks.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	done, err := svc.List(ctx, alice.ID, tasks.ListFilter{Completed: ptr(true)})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, first.ID, done[0].ID)

	require.NoError(t, svc.Delete(ctx, alice.ID, first.ID))
	require.ErrorIs(t, svc.Delete(ctx, alice.ID, first.ID), shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, bob.ID, second.ID), shared.ErrNotFound)
}
