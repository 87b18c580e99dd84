package yacache_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/znsocket/znsocket-go/yacache"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	yamainKey2 = "yamain2"
	yavalue2   = "yavalue2"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()

	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestRedisCacheService(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	redis := yacache.NewRedis(client)

	ctx := context.Background()

	t.Parallel()

	_ = redis.Set(ctx, yamainKey2, yavalue2, yattl)

	t.Run("[Set] - set value works", func(t *testing.T) {
		value, _ := redis.Raw().Get(ctx, yamainKey2).Result()

		assert.Equal(t, yavalue2, value)
	})

	t.Run("[Get] - get value works", func(t *testing.T) {
		value, _ := redis.Get(ctx, yamainKey2)

		assert.Equal(t, yavalue2, value)
	})

	t.Run("[Exists] - check values exist works", func(t *testing.T) {
		keys := make([]string, 0, 10)
		for i := range 10 {
			key := fmt.Sprintf("check_exists_key:%d", i)
			keys = append(keys, key)
			redis.Raw().Set(ctx, key, yavalue2, yattl)
		}

		result, _ := redis.Exists(ctx, keys...)

		assert.True(t, result)
	})

	t.Run("[Del] - delete value works", func(t *testing.T) {
		deleteKey := yamainKey2 + "DELTEST"
		redis.Raw().Set(ctx, deleteKey, yavalue2, yattl)

		_ = redis.Del(ctx, deleteKey)

		result, _ := redis.Raw().Exists(ctx, deleteKey).Result()

		assert.Equal(t, int64(0), result)
	})

	t.Run("[Ping] - reachable works", func(t *testing.T) {
		assert.Nil(t, redis.Ping(ctx))
	})
}
