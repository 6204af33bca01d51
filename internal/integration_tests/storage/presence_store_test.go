//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"circles/internal/presence"
	"circles/pkg/testutil/containers"
)

func TestRedisPresenceStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	store := presence.NewRedisStore(rc.Client)

	t.Run("tracks online users", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		require.NoError(t, store.SetOnline(ctx, 1, true))
		require.NoError(t, store.SetOnline(ctx, 2, true))

		online, err := store.ListOnline(ctx)
		require.NoError(t, err)
		require.ElementsMatch(t, []int64{1, 2}, online)
	})

	t.Run("going offline removes the user", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		require.NoError(t, store.SetOnline(ctx, 1, true))
		require.NoError(t, store.SetOnline(ctx, 2, true))
		require.NoError(t, store.SetOnline(ctx, 1, false))

		online, err := store.ListOnline(ctx)
		require.NoError(t, err)
		require.Equal(t, []int64{2}, online)
	})

	t.Run("offline for an unknown user is a no-op", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		require.NoError(t, store.SetOnline(ctx, 99, false))
		online, err := store.ListOnline(ctx)
		require.NoError(t, err)
		require.Empty(t, online)
	})

	t.Run("survives reconnecting through a fresh store", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		require.NoError(t, store.SetOnline(ctx, 7, true))
		fresh := presence.NewRedisStore(rc.Client)
		online, err := fresh.ListOnline(ctx)
		require.NoError(t, err)
		require.Equal(t, []int64{7}, online)
	})
}
