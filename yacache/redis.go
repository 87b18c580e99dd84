package yacache

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/znsocket/znsocket-go/yalogger"
	"github.com/redis/go-redis/v9"
)

// Redis wraps a *redis.Client and implements Cache against a real (or
// miniredis-simulated) Redis server. It backs the multi-process variant
// of connstate.Machine's state storage, so that a deployment running
// more than one process can share connection state.
type Redis struct {
	backendName string
	client      *redis.Client
}

// NewRedis turns an already-configured *redis.Client into a Redis cache.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{backendName: "REDIS", client: client}
}

// NewRedisClient dials a real Redis instance and performs an initial
// PING, logging both the attempt and the outcome. A failed connection is
// fatal, mirroring the standard library's log.Fatalf semantics.
func NewRedisClient(
	host string,
	port uint16,
	password string,
	db int,
	log yalogger.Logger,
) *redis.Client {
	redisAddr := fmt.Sprintf("%s:%s", host, strconv.Itoa(int(port)))

	if log == nil {
		log = yalogger.NewBaseLogger(nil).NewLogger()
	}

	log.Infof("Redis connecting to addr %s", redisAddr)

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
		Network:  "tcp4",
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}

	log.Infof("Redis connected to addr %s", redisAddr)

	return client
}

// Raw exposes the underlying *redis.Client for advanced operations
// (e.g. Lua scripts) outside the scope of the high-level API.
func (r *Redis) Raw() *redis.Client {
	return r.client
}

// Set writes key -> value to Redis with the given TTL. A zero duration
// stores the value forever (no EX option).
func (r *Redis) Set(
	ctx context.Context,
	key string,
	value string,
	ttl time.Duration,
) yaerrors.Error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[%s] failed `SET` by `%s`", r.backendName, key),
		)
	}

	return nil
}

// Get retrieves the value via the GET command, failing with
// ErrKeyNotFound if key does not exist.
func (r *Redis) Get(
	ctx context.Context,
	key string,
) (string, yaerrors.Error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", yaerrors.FromError(
			http.StatusInternalServerError,
			ErrKeyNotFound,
			fmt.Sprintf("[%s] failed `GET` by `%s`", r.backendName, key),
		)
	}

	return value, nil
}

// Exists reports whether Redis's EXISTS command confirms every one of
// the given keys is present.
func (r *Redis) Exists(
	ctx context.Context,
	keys ...string,
) (bool, yaerrors.Error) {
	count, err := r.client.Exists(ctx, keys...).Result()
	if err != nil {
		return false, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[%s] failed `EXISTS` by `%s`", r.backendName, strings.Join(keys, ",")),
		)
	}

	return count == int64(len(keys)), nil
}

// Del removes key through DEL. Deleting a missing key is not an error.
func (r *Redis) Del(
	ctx context.Context,
	key string,
) yaerrors.Error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[%s] failed `DEL` by `%s`", r.backendName, key),
		)
	}

	return nil
}

// Ping sends the Redis PING command.
func (r *Redis) Ping(ctx context.Context) yaerrors.Error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[%s] failed `PING`", r.backendName),
		)
	}

	return nil
}

// Close closes the underlying connection. Callers that created the
// *redis.Client themselves should defer this.
func (r *Redis) Close() yaerrors.Error {
	if err := r.client.Close(); err != nil {
		return yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[%s] failed `CLOSE`", r.backendName),
		)
	}

	return nil
}
