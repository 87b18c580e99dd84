package dispatch

import (
	"context"
	"errors"

	"github.com/znsocket/znsocket-go/refresh"
	"github.com/znsocket/znsocket-go/store"
	"github.com/znsocket/znsocket-go/wire"
	"github.com/znsocket/znsocket-go/wireerr"
)

// execLocal runs cmd against the storage backend directly (the target key
// is not adapter-backed). It returns the reply value, whether the command
// mutated state, and — for mutations — the refresh event to broadcast.
func (d *Dispatcher[T]) execLocal(
	ctx context.Context,
	cmd Command,
) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	args := cmd.Args

	switch cmd.Name {
	case "ping":
		if err := d.store.Ping(ctx); err != nil {
			return nil, false, nil, wrapStoreErr(err)
		}

		return "PONG", false, nil, nil

	case "flushall":
		if err := d.store.FlushAll(ctx); err != nil {
			return nil, false, nil, wrapStoreErr(err)
		}

		return true, false, nil, nil

	case "exists":
		return d.execExists(ctx, args)
	case "set":
		return d.execSet(ctx, args)
	case "get":
		return d.execGet(ctx, args)
	case "incr":
		return d.execIncr(ctx, args)
	case "del":
		return d.execDel(ctx, args)
	case "copy":
		return d.execCopy(ctx, args)

	case "hset":
		return d.execHSet(ctx, args)
	case "hget":
		return d.execHGet(ctx, args)
	case "hmget":
		return d.execHMGet(ctx, args)
	case "hkeys":
		return d.execHKeys(ctx, args)
	case "hvals":
		return d.execHVals(ctx, args)
	case "hgetall":
		return d.execHGetAll(ctx, args)
	case "hdel":
		return d.execHDel(ctx, args)
	case "hlen":
		return d.execHLen(ctx, args)

	case "llen":
		return d.execLLen(ctx, args)
	case "rpush":
		return d.execPush(ctx, args, true)
	case "lpush":
		return d.execPush(ctx, args, false)
	case "lindex":
		return d.execLIndex(ctx, args)
	case "lrange":
		return d.execLRange(ctx, args)
	case "lset":
		return d.execLSet(ctx, args)
	case "lrem":
		return d.execLRem(ctx, args)
	case "linsert":
		return d.execLInsert(ctx, args)
	case "lpop":
		return d.execPop(ctx, args, true)
	case "rpop":
		return d.execPop(ctx, args, false)

	case "sadd":
		return d.execSAdd(ctx, args)
	case "srem":
		return d.execSRem(ctx, args)
	case "smembers":
		return d.execSMembers(ctx, args)
	case "scard":
		return d.execSCard(ctx, args)

	default:
		return nil, false, nil, wireerr.NotImplemented("unknown command: " + cmd.Name)
	}
}

func (d *Dispatcher[T]) execExists(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("exists requires a key")
	}

	ok, err := d.store.Exists(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return ok, false, nil, nil
}

func (d *Dispatcher[T]) execSet(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 2 {
		return nil, false, nil, wireerr.Data("set requires key and value")
	}

	key, value := args[0], args[1]
	opts := store.SetOptions{}

	for _, flag := range args[2:] {
		switch flag {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		}
	}

	ok, err := d.store.Set(ctx, key, value, opts)
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	event := refresh.Keys(key, key)

	return ok, ok, &event, nil
}

func (d *Dispatcher[T]) execGet(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("get requires a key")
	}

	value, err := d.store.Get(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return value, false, nil, nil
}

func (d *Dispatcher[T]) execIncr(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("incr requires a key")
	}

	by := int64(1)

	if len(args) > 1 {
		parsed, perr := parseInt64(args[1])
		if perr != nil {
			return nil, false, nil, perr
		}

		by = parsed
	}

	value, err := d.store.Incr(ctx, args[0], by)
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	event := refresh.Keys(args[0], args[0])

	return value, true, &event, nil
}

func (d *Dispatcher[T]) execDel(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("del requires a key")
	}

	ok, err := d.store.Delete(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	event := refresh.Keys(args[0], args[0])

	return ok, ok, &event, nil
}

func (d *Dispatcher[T]) execCopy(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 2 {
		return nil, false, nil, wireerr.Data("copy requires src and dst")
	}

	replace := len(args) > 2 && parseBool(args[2])

	ok, err := d.store.Copy(ctx, args[0], args[1], replace)
	if err != nil {
		// A destination that already exists (without replace) is reported
		// as a plain false result, matching Redis COPY semantics and
		// invariant 5 — not surfaced as a wire error.
		if errors.Is(err.Unwrap(), store.ErrDestExists) {
			return false, false, nil, nil
		}

		return nil, false, nil, wrapStoreErr(err)
	}

	event := refresh.Keys(args[1], args[1])

	return ok, ok, &event, nil
}

func (d *Dispatcher[T]) execHSet(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 3 {
		return nil, false, nil, wireerr.Data("hset requires key, field and value")
	}

	ok, err := d.store.HSet(ctx, args[0], args[1], args[2])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	event := refresh.Keys(args[0], args[1])

	return ok, true, &event, nil
}

func (d *Dispatcher[T]) execHGet(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 2 {
		return nil, false, nil, wireerr.Data("hget requires key and field")
	}

	value, err := d.store.HGet(ctx, args[0], args[1])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return value, false, nil, nil
}

func (d *Dispatcher[T]) execHMGet(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("hmget requires a key")
	}

	values, err := d.store.HMGet(ctx, args[0], args[1:]...)
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return values, false, nil, nil
}

func (d *Dispatcher[T]) execHKeys(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("hkeys requires a key")
	}

	keys, err := d.store.HKeys(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return keys, false, nil, nil
}

func (d *Dispatcher[T]) execHVals(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("hvals requires a key")
	}

	vals, err := d.store.HVals(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return vals, false, nil, nil
}

func (d *Dispatcher[T]) execHGetAll(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("hgetall requires a key")
	}

	all, err := d.store.HGetAll(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return all, false, nil, nil
}

func (d *Dispatcher[T]) execHDel(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 2 {
		return nil, false, nil, wireerr.Data("hdel requires key and field")
	}

	ok, err := d.store.HDel(ctx, args[0], args[1])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	event := refresh.Keys(args[0], args[1])

	return ok, ok, &event, nil
}

func (d *Dispatcher[T]) execHLen(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("hlen requires a key")
	}

	n, err := d.store.HLen(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return n, false, nil, nil
}

func (d *Dispatcher[T]) execLLen(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("llen requires a key")
	}

	n, err := d.store.LLen(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return n, false, nil, nil
}

func (d *Dispatcher[T]) execPush(
	ctx context.Context,
	args []string,
	right bool,
) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 2 {
		return nil, false, nil, wireerr.Data("push requires a key and at least one value")
	}

	var n int64

	if right {
		result, yerr := d.store.RPush(ctx, args[0], args[1:]...)
		if yerr != nil {
			return nil, false, nil, wrapStoreErr(yerr)
		}

		n = result
	} else {
		result, yerr := d.store.LPush(ctx, args[0], args[1:]...)
		if yerr != nil {
			return nil, false, nil, wrapStoreErr(yerr)
		}

		n = result
	}

	event := refresh.Slice(args[0], 0, -1, 1)

	return n, true, &event, nil
}

func (d *Dispatcher[T]) execLIndex(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 2 {
		return nil, false, nil, wireerr.Data("lindex requires key and index")
	}

	idx, perr := parseInt(args[1])
	if perr != nil {
		return nil, false, nil, perr
	}

	value, err := d.store.LIndex(ctx, args[0], idx)
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return value, false, nil, nil
}

func (d *Dispatcher[T]) execLRange(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 3 {
		return nil, false, nil, wireerr.Data("lrange requires key, start and stop")
	}

	start, perr := parseInt(args[1])
	if perr != nil {
		return nil, false, nil, perr
	}

	stop, perr := parseInt(args[2])
	if perr != nil {
		return nil, false, nil, perr
	}

	values, err := d.store.LRange(ctx, args[0], start, stop)
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return values, false, nil, nil
}

func (d *Dispatcher[T]) execLSet(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 3 {
		return nil, false, nil, wireerr.Data("lset requires key, index and value")
	}

	idx, perr := parseInt(args[1])
	if perr != nil {
		return nil, false, nil, perr
	}

	if err := d.store.LSet(ctx, args[0], idx, args[2]); err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	event := refresh.Indices(args[0], idx)

	return true, true, &event, nil
}

func (d *Dispatcher[T]) execLRem(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 3 {
		return nil, false, nil, wireerr.Data("lrem requires key, count and value")
	}

	count, perr := parseInt(args[1])
	if perr != nil {
		return nil, false, nil, perr
	}

	n, err := d.store.LRem(ctx, args[0], count, args[2])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	mutated := n > 0
	event := refresh.Slice(args[0], 0, -1, 1)

	return n, mutated, &event, nil
}

func (d *Dispatcher[T]) execLInsert(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 4 {
		return nil, false, nil, wireerr.Data("linsert requires key, where, pivot and value")
	}

	where := store.Before
	if args[1] == "AFTER" {
		where = store.After
	}

	n, err := d.store.LInsert(ctx, args[0], where, args[2], args[3])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	mutated := n > 0
	event := refresh.Slice(args[0], 0, -1, 1)

	return n, mutated, &event, nil
}

func (d *Dispatcher[T]) execPop(
	ctx context.Context,
	args []string,
	fromLeft bool,
) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("pop requires a key")
	}

	count := 1

	if len(args) > 1 {
		parsed, perr := parseInt(args[1])
		if perr != nil {
			return nil, false, nil, perr
		}

		count = parsed
	}

	values, err := d.store.LPop(ctx, args[0], fromLeft, count)
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	mutated := len(values) > 0
	event := refresh.Slice(args[0], 0, -1, 1)

	return values, mutated, &event, nil
}

func (d *Dispatcher[T]) execSAdd(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 2 {
		return nil, false, nil, wireerr.Data("sadd requires key and at least one member")
	}

	n, err := d.store.SAdd(ctx, args[0], args[1:]...)
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	event := refresh.Keys(args[0], args[1:]...)

	return n, n > 0, &event, nil
}

func (d *Dispatcher[T]) execSRem(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 2 {
		return nil, false, nil, wireerr.Data("srem requires key and at least one member")
	}

	n, err := d.store.SRem(ctx, args[0], args[1:]...)
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	event := refresh.Keys(args[0], args[1:]...)

	return n, n > 0, &event, nil
}

func (d *Dispatcher[T]) execSMembers(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("smembers requires a key")
	}

	members, err := d.store.SMembers(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return members, false, nil, nil
}

func (d *Dispatcher[T]) execSCard(ctx context.Context, args []string) (any, bool, *wire.RefreshEvent, wireerr.Error) {
	if len(args) < 1 {
		return nil, false, nil, wireerr.Data("scard requires a key")
	}

	n, err := d.store.SCard(ctx, args[0])
	if err != nil {
		return nil, false, nil, wrapStoreErr(err)
	}

	return n, false, nil, nil
}
