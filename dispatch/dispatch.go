package dispatch

import (
	"context"
	"strconv"
	"time"

	"github.com/znsocket/znsocket-go/yacache"
	"github.com/znsocket/znsocket-go/yalogger"
	"github.com/znsocket/znsocket-go/yaratelimit"
	"github.com/znsocket/znsocket-go/adapter"
	"github.com/znsocket/znsocket-go/refresh"
	"github.com/znsocket/znsocket-go/rooms"
	"github.com/znsocket/znsocket-go/store"
	"github.com/znsocket/znsocket-go/wireerr"
)

// Dispatcher is the command dispatcher of spec §4.5: the entry point for
// every incoming protocol event. T mirrors store.Store[T]'s backend
// parameter, so a dispatcher over a memory-backed store and one over a
// Redis-backed store share identical call sites.
type Dispatcher[T store.Container] struct {
	store    store.Store[T]
	rooms    *rooms.Registry
	adapters *adapter.Registry
	caller   adapter.Caller
	log      yalogger.Logger

	limiter      *yaratelimit.RateLimit[yacache.MemoryContainer]
	limiterLimit uint8
	limiterGroup string
}

// NewDispatcher wires the storage backend, room registry, and adapter
// registry into a ready-to-use dispatcher. caller performs the owner round
// trip for adapter-backed keys; it may be nil if the deployment never
// registers adapters.
func NewDispatcher[T store.Container](
	backend store.Store[T],
	roomRegistry *rooms.Registry,
	adapterRegistry *adapter.Registry,
	caller adapter.Caller,
	log yalogger.Logger,
) *Dispatcher[T] {
	return &Dispatcher[T]{
		store:    backend,
		rooms:    roomRegistry,
		adapters: adapterRegistry,
		caller:   caller,
		log:      log,
	}
}

// WithRateLimit enables the carried-ambient per-socket rate limiter
// (§4.5 [EXPANDED]): exceeding limit hits within rate fails the command
// with a ResponseError instead of executing it. Disabled by default — a
// zero-value Dispatcher never rate-limits, so this never changes the
// documented command semantics unless a caller opts in.
func (d *Dispatcher[T]) WithRateLimit(limit uint8, rate time.Duration) *Dispatcher[T] {
	d.limiter = yaratelimit.NewRateLimit(yacache.NewCache(yacache.NewMemoryContainer()), limit, rate)
	d.limiterLimit = limit
	d.limiterGroup = "dispatch"

	return d
}

// Execute runs one command for socketID, which must already be joined to
// room (the caller is expected to have enforced this through
// connstate.Machine.RequireJoined). If the command mutated state and room
// has other members, a refresh event is broadcast through sender before
// Execute returns, per the ordering guarantee in §5 ("refreshes produced
// by command n are delivered before the reply to command n+1").
func (d *Dispatcher[T]) Execute(
	ctx context.Context,
	socketID string,
	room string,
	sender rooms.Sender,
	cmd Command,
) (any, wireerr.Error) {
	if d.limiter != nil {
		banned, err := d.limiter.Increment(ctx, socketIDHash(socketID), d.limiterGroup)
		if err != nil {
			return nil, wireerr.Response("rate limiter unavailable")
		}

		if banned {
			return nil, wireerr.Response("too many requests")
		}
	}

	key, keyErr := cmd.targetKey()
	if keyErr != nil && cmd.Name != "flushall" && cmd.Name != "ping" {
		return nil, keyErr
	}

	if key != "" && d.adapters.Exists(key) {
		return d.forwardToAdapter(ctx, cmd, key)
	}

	value, mutated, event, err := d.execLocal(ctx, cmd)
	if err != nil {
		if d.log != nil {
			d.log.WithField("command", cmd.Name).Errorf("command failed: %s", err.Error())
		}

		return nil, err
	}

	if mutated && event != nil {
		if verr := refresh.Validate(*event); verr == nil && len(d.rooms.Members(room)) > 1 {
			d.rooms.Broadcast(sender, room, socketID, *event)
		}
	}

	return value, nil
}

func (d *Dispatcher[T]) forwardToAdapter(ctx context.Context, cmd Command, key string) (any, wireerr.Error) {
	method, ok := adapterMethod(cmd.Name)
	if !ok {
		return nil, wireerr.NotImplemented("command not supported against an adapter-backed key: " + cmd.Name)
	}

	if d.caller == nil {
		return nil, wireerr.Connection("no adapter caller configured")
	}

	args := make(map[string]any, len(cmd.Args)-1)
	for i, a := range cmd.Args[1:] {
		args[strconv.Itoa(i)] = a
	}

	return d.adapters.Call(ctx, d.caller, key, method, args)
}

// socketIDHash folds a socket id into the uint64 subject the rate limiter
// keys on; collisions only widen the shared window for two sockets, never
// break correctness.
func socketIDHash(socketID string) uint64 {
	var h uint64 = 14695981039346656037

	for i := 0; i < len(socketID); i++ {
		h ^= uint64(socketID[i])
		h *= 1099511628211
	}

	return h
}
