package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/znsocket/znsocket-go/store"
)

func setupTestRedisStore(t *testing.T) (store.Store[*redis.Client], func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return store.NewStore(client), cleanup
}

func TestRedisStore_StringRoundTrip(t *testing.T) {
	t.Parallel()

	s, cleanup := setupTestRedisStore(t)
	defer cleanup()

	ctx := context.Background()

	ok, err := s.Set(ctx, "greeting", "hello", store.SetOptions{})
	require.Nil(t, err)
	require.True(t, ok)

	value, err := s.Get(ctx, "greeting")
	require.Nil(t, err)
	require.Equal(t, "hello", value)
}

func TestRedisStore_HashAndListShareSemanticsWithMemory(t *testing.T) {
	t.Parallel()

	s, cleanup := setupTestRedisStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := s.HSet(ctx, "user:1", "name", "ada")
	require.Nil(t, err)

	value, err := s.HGet(ctx, "user:1", "name")
	require.Nil(t, err)
	require.Equal(t, "ada", value)

	_, err = s.RPush(ctx, "queue", "a", "b", "c")
	require.Nil(t, err)

	values, err := s.LRange(ctx, "queue", 0, -1)
	require.Nil(t, err)
	require.Equal(t, []string{"a", "b", "c"}, values)
}

func TestRedisStore_SetMembers(t *testing.T) {
	t.Parallel()

	s, cleanup := setupTestRedisStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := s.SAdd(ctx, "tags", "go", "redis")
	require.Nil(t, err)

	card, err := s.SCard(ctx, "tags")
	require.Nil(t, err)
	require.Equal(t, int64(2), card)
}

func TestRedisStore_GetMissingKeyIsNoSuchKey(t *testing.T) {
	t.Parallel()

	s, cleanup := setupTestRedisStore(t)
	defer cleanup()

	_, err := s.Get(context.Background(), "absent")
	require.NotNil(t, err)
}
