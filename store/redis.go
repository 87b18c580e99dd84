package store

import (
	"context"
	"net/http"

	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/redis/go-redis/v9"
)

// Redis is the Store backend that executes the same Redis-subset command
// surface against a real (or miniredis-simulated) Redis server, so a
// deployment can externalize the data plane without changing the
// dispatcher wired against Store[T].
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing *redis.Client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Raw() *redis.Client {
	return r.client
}

func wrapRedisErr(err error, op string) yaerrors.Error {
	if err == nil {
		return nil
	}

	if err == redis.Nil { //nolint:errorlint // go-redis sentinel, never wrapped
		return noSuchKey(op)
	}

	return yaerrors.FromError(http.StatusBadGateway, err, op)
}

func (r *Redis) Set(
	ctx context.Context,
	key string,
	value string,
	opts SetOptions,
) (bool, yaerrors.Error) {
	cmd := r.client.SetArgs(ctx, key, value, redis.SetArgs{
		TTL:  opts.EX,
		Mode: modeFor(opts),
	})

	_, err := cmd.Result()
	if err != nil {
		if err == redis.Nil { //nolint:errorlint // go-redis sentinel for NX/XX miss
			return false, nil
		}

		return false, wrapRedisErr(err, "set: "+key)
	}

	return true, nil
}

func modeFor(opts SetOptions) string {
	switch {
	case opts.NX:
		return "NX"
	case opts.XX:
		return "XX"
	default:
		return ""
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, yaerrors.Error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", wrapRedisErr(err, "get: "+key)
	}

	return value, nil
}

func (r *Redis) Incr(ctx context.Context, key string, by int64) (int64, yaerrors.Error) {
	value, err := r.client.IncrBy(ctx, key, by).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "incr: "+key)
	}

	return value, nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, yaerrors.Error) {
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, wrapRedisErr(err, "exists: "+key)
	}

	return count > 0, nil
}

func (r *Redis) Delete(ctx context.Context, key string) (bool, yaerrors.Error) {
	count, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, wrapRedisErr(err, "delete: "+key)
	}

	return count > 0, nil
}

func (r *Redis) Copy(
	ctx context.Context,
	src string,
	dst string,
	replace bool,
) (bool, yaerrors.Error) {
	ok, err := r.client.Copy(ctx, src, dst, 0, replace).Result()
	if err != nil {
		return false, wrapRedisErr(err, "copy: "+src)
	}

	return ok > 0, nil
}

func (r *Redis) HSet(
	ctx context.Context,
	key string,
	field string,
	value string,
) (bool, yaerrors.Error) {
	created, err := r.client.HSet(ctx, key, field, value).Result()
	if err != nil {
		return false, wrapRedisErr(err, "hset: "+key)
	}

	return created > 0, nil
}

func (r *Redis) HGet(ctx context.Context, key string, field string) (string, yaerrors.Error) {
	value, err := r.client.HGet(ctx, key, field).Result()
	if err != nil {
		return "", wrapRedisErr(err, "hget: "+key+" "+field)
	}

	return value, nil
}

func (r *Redis) HMGet(
	ctx context.Context,
	key string,
	fields ...string,
) (map[string]*string, yaerrors.Error) {
	values, err := r.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, wrapRedisErr(err, "hmget: "+key)
	}

	out := make(map[string]*string, len(fields))

	for i, field := range fields {
		if values[i] == nil {
			out[field] = nil

			continue
		}

		str, ok := values[i].(string)
		if !ok {
			out[field] = nil

			continue
		}

		out[field] = &str
	}

	return out, nil
}

func (r *Redis) HKeys(ctx context.Context, key string) ([]string, yaerrors.Error) {
	keys, err := r.client.HKeys(ctx, key).Result()
	if err != nil {
		return nil, wrapRedisErr(err, "hkeys: "+key)
	}

	return keys, nil
}

func (r *Redis) HVals(ctx context.Context, key string) ([]string, yaerrors.Error) {
	vals, err := r.client.HVals(ctx, key).Result()
	if err != nil {
		return nil, wrapRedisErr(err, "hvals: "+key)
	}

	return vals, nil
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, yaerrors.Error) {
	all, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, wrapRedisErr(err, "hgetall: "+key)
	}

	return all, nil
}

func (r *Redis) HExists(ctx context.Context, key string, field string) (bool, yaerrors.Error) {
	ok, err := r.client.HExists(ctx, key, field).Result()
	if err != nil {
		return false, wrapRedisErr(err, "hexists: "+key)
	}

	return ok, nil
}

func (r *Redis) HDel(ctx context.Context, key string, field string) (bool, yaerrors.Error) {
	count, err := r.client.HDel(ctx, key, field).Result()
	if err != nil {
		return false, wrapRedisErr(err, "hdel: "+key)
	}

	return count > 0, nil
}

func (r *Redis) HLen(ctx context.Context, key string) (int64, yaerrors.Error) {
	count, err := r.client.HLen(ctx, key).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "hlen: "+key)
	}

	return count, nil
}

func (r *Redis) LLen(ctx context.Context, key string) (int64, yaerrors.Error) {
	count, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "llen: "+key)
	}

	return count, nil
}

func (r *Redis) RPush(
	ctx context.Context,
	key string,
	values ...string,
) (int64, yaerrors.Error) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}

	count, err := r.client.RPush(ctx, key, args...).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "rpush: "+key)
	}

	return count, nil
}

func (r *Redis) LPush(
	ctx context.Context,
	key string,
	values ...string,
) (int64, yaerrors.Error) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}

	count, err := r.client.LPush(ctx, key, args...).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "lpush: "+key)
	}

	return count, nil
}

func (r *Redis) LIndex(ctx context.Context, key string, index int) (string, yaerrors.Error) {
	value, err := r.client.LIndex(ctx, key, int64(index)).Result()
	if err != nil {
		if err == redis.Nil { //nolint:errorlint // go-redis sentinel
			return "", yaerrors.FromError(http.StatusBadRequest, ErrIndexOutOfRange, "lindex: "+key)
		}

		return "", wrapRedisErr(err, "lindex: "+key)
	}

	return value, nil
}

func (r *Redis) LRange(
	ctx context.Context,
	key string,
	start int,
	stop int,
) ([]string, yaerrors.Error) {
	values, err := r.client.LRange(ctx, key, int64(start), int64(stop)).Result()
	if err != nil {
		return nil, wrapRedisErr(err, "lrange: "+key)
	}

	return values, nil
}

func (r *Redis) LSet(ctx context.Context, key string, index int, value string) yaerrors.Error {
	err := r.client.LSet(ctx, key, int64(index), value).Err()
	if err != nil {
		return wrapRedisErr(err, "lset: "+key)
	}

	return nil
}

func (r *Redis) LRem(
	ctx context.Context,
	key string,
	count int,
	value string,
) (int64, yaerrors.Error) {
	removed, err := r.client.LRem(ctx, key, int64(count), value).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "lrem: "+key)
	}

	return removed, nil
}

func (r *Redis) LInsert(
	ctx context.Context,
	key string,
	where Where,
	pivot string,
	value string,
) (int64, yaerrors.Error) {
	var (
		count int64
		err   error
	)

	if where == Before {
		count, err = r.client.LInsertBefore(ctx, key, pivot, value).Result()
	} else {
		count, err = r.client.LInsertAfter(ctx, key, pivot, value).Result()
	}

	if err != nil {
		return 0, wrapRedisErr(err, "linsert: "+key)
	}

	return count, nil
}

func (r *Redis) LPop(
	ctx context.Context,
	key string,
	fromLeft bool,
	count int,
) ([]string, yaerrors.Error) {
	var (
		values []string
		err    error
	)

	if fromLeft {
		values, err = r.client.LPopCount(ctx, key, count).Result()
	} else {
		values, err = r.client.RPopCount(ctx, key, count).Result()
	}

	if err != nil {
		return nil, wrapRedisErr(err, "lpop: "+key)
	}

	return values, nil
}

func (r *Redis) SAdd(ctx context.Context, key string, members ...string) (int64, yaerrors.Error) {
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}

	count, err := r.client.SAdd(ctx, key, args...).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "sadd: "+key)
	}

	return count, nil
}

func (r *Redis) SRem(ctx context.Context, key string, members ...string) (int64, yaerrors.Error) {
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}

	count, err := r.client.SRem(ctx, key, args...).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "srem: "+key)
	}

	return count, nil
}

func (r *Redis) SMembers(ctx context.Context, key string) ([]string, yaerrors.Error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, wrapRedisErr(err, "smembers: "+key)
	}

	return members, nil
}

func (r *Redis) SCard(ctx context.Context, key string) (int64, yaerrors.Error) {
	count, err := r.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, wrapRedisErr(err, "scard: "+key)
	}

	return count, nil
}

func (r *Redis) FlushAll(ctx context.Context) yaerrors.Error {
	err := r.client.FlushAll(ctx).Err()
	if err != nil {
		return wrapRedisErr(err, "flushall")
	}

	return nil
}

func (r *Redis) Ping(ctx context.Context) yaerrors.Error {
	err := r.client.Ping(ctx).Err()
	if err != nil {
		return wrapRedisErr(err, "ping")
	}

	return nil
}

func (r *Redis) Close() yaerrors.Error {
	err := r.client.Close()
	if err != nil {
		return wrapRedisErr(err, "close")
	}

	return nil
}
