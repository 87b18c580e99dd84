package yacache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/znsocket/znsocket-go/yacache"
	"github.com/stretchr/testify/assert"
)

const (
	yamainKey = "yamain"
	yavalue   = "yavalue"

	yattl = time.Hour
)

func TestMemory_New_Works(t *testing.T) {
	memory := yacache.NewMemory(yacache.NewMemoryContainer(), time.Hour)

	assert.Equal(t, memory.Ping(context.Background()), nil)
}

func TestMemory_TTLCleanup_Works(t *testing.T) {
	ctx := context.Background()

	tick := time.Second / 10

	memory := yacache.NewMemory(yacache.NewMemoryContainer(), tick)

	_ = memory.Set(ctx, yamainKey, yavalue, time.Microsecond)

	time.Sleep(tick + (time.Millisecond * 5))

	exist, _ := memory.Exists(ctx, yamainKey)

	expected := false

	assert.Equal(t, expected, exist)
}

func TestMemory_InsertWorkflow_Works(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	memory := yacache.NewMemory(yacache.NewMemoryContainer(), time.Hour)

	err := memory.Set(ctx, yamainKey, yavalue, yattl)
	if err != nil {
		panic(err)
	}

	value := memory.Raw().Map[yamainKey].Value

	assert.Equal(t, yavalue, value)
}

func TestMemory_FetchWorkflow_Works(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	memory := yacache.NewMemory(yacache.NewMemoryContainer(), time.Hour)

	err := memory.Set(ctx, yamainKey, yavalue, yattl)
	if err != nil {
		panic(err)
	}

	t.Run("[Exist] - works", func(t *testing.T) {
		exist, _ := memory.Exists(ctx, yamainKey)

		expected := true

		assert.Equal(t, expected, exist)
	})

	t.Run("[Get] - get item works", func(t *testing.T) {
		value, _ := memory.Get(ctx, yamainKey)

		assert.Equal(t, yavalue, value)
	})

	t.Run("[Exists] - multi-key works", func(t *testing.T) {
		var keys []string

		for i := range 10 {
			key := fmt.Sprintf("%s:%d", yamainKey, i)
			keys = append(keys, key)

			err := memory.Set(ctx, key, fmt.Sprintf("%s:%d", yavalue, i), yattl)
			if err != nil {
				panic(err)
			}
		}

		ok, _ := memory.Exists(ctx, keys...)

		assert.True(t, ok)
	})
}

func TestMemory_DeleteWorkflow_Works(t *testing.T) {
	ctx := context.Background()

	memory := yacache.NewMemory(yacache.NewMemoryContainer(), time.Hour)

	err := memory.Set(ctx, yamainKey, yavalue, yattl)
	if err != nil {
		panic(err)
	}

	_ = memory.Del(ctx, yamainKey)

	exist, _ := memory.Exists(ctx, yamainKey)

	expected := false

	assert.Equal(t, expected, exist)
}
