// Package dispatch implements the command dispatcher (spec §4.5) and the
// pipeline executor (spec §4.6): the single entry point that turns one
// incoming wire command into a Store operation or an adapter RPC, and
// batches of commands into an ordered, short-circuiting pipeline.
package dispatch

import (
	"strconv"

	"github.com/znsocket/znsocket-go/adapter"
	"github.com/znsocket/znsocket-go/wireerr"
)

// Command is one `(command_name, args)` pair, the unit the dispatcher and
// pipeline executor both operate on.
type Command struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

// targetKey is the key every command addresses, by convention the first
// argument — true for every Redis-subset verb in §4.1.
func (c Command) targetKey() (string, wireerr.Error) {
	if len(c.Args) == 0 {
		return "", wireerr.Data("command " + c.Name + " requires at least one argument")
	}

	return c.Args[0], nil
}

// adapterMethod maps a store command to the coarser adapter RPC surface
// (get/set/del/len/keys/values/flush) a registered owner actually
// implements. The List/Dict object contract (§4.7/§4.7b) only ever needs
// this seven-verb surface from an adapter owner, so every finer-grained
// Redis-subset verb collapses onto the member closest to its semantics —
// an Open Question resolution recorded in DESIGN.md, since the source
// spec does not enumerate a verb-by-verb RPC mapping.
func adapterMethod(name string) (adapter.Method, bool) {
	switch name {
	case "get", "hget", "hgetall", "hmget", "lindex", "lrange", "smembers", "exists":
		return adapter.MethodGet, true
	case "set", "hset", "rpush", "lpush", "lset", "linsert", "sadd", "copy":
		return adapter.MethodSet, true
	case "del", "hdel", "lrem", "srem", "lpop":
		return adapter.MethodDel, true
	case "llen", "hlen", "scard":
		return adapter.MethodLen, true
	case "hkeys":
		return adapter.MethodKeys, true
	case "hvals":
		return adapter.MethodValues, true
	case "flushall":
		return adapter.MethodFlush, true
	default:
		return 0, false
	}
}

func parseInt(s string) (int, wireerr.Error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, wireerr.Data("not an integer: " + s)
	}

	return n, nil
}

func parseInt64(s string) (int64, wireerr.Error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, wireerr.Data("not an integer: " + s)
	}

	return n, nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)

	return b
}
