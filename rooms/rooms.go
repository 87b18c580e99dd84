// Package rooms implements the room registry of spec §4.3: clients join a
// room to receive refresh broadcasts for the keys that room represents, and
// the registry fans a refresh event out to every member but the sender.
package rooms

import (
	"github.com/znsocket/znsocket-go/threadsafemap"
	"github.com/znsocket/znsocket-go/yathreadsafeset"
	"github.com/znsocket/znsocket-go/wire"
)

// Sender delivers a refresh event to a single member; the transport layer
// supplies the concrete implementation (chunked or not, per message size).
type Sender interface {
	SendRefresh(memberID string, event wire.RefreshEvent) error
}

// Room tracks the sockets currently joined to a single room name.
type Room struct {
	members *yathreadsafeset.ThreadSafeSet[string]
}

func newRoom() *Room {
	return &Room{members: yathreadsafeset.NewThreadSafeSet[string]()}
}

// Registry is the process-wide room → members table.
type Registry struct {
	rooms *threadsafemap.ThreadSafeMap[string, *Room]
}

// NewRegistry returns an empty room registry.
func NewRegistry() *Registry {
	return &Registry{rooms: threadsafemap.NewThreadSafeMap[string, *Room]()}
}

// Join adds memberID to room, creating the room if it does not exist yet.
func (r *Registry) Join(room string, memberID string) {
	r.rooms.Update(room, func(old *Room, exists bool) *Room {
		if !exists || old == nil {
			old = newRoom()
		}

		old.members.Set(memberID)

		return old
	})
}

// Leave removes memberID from room. An empty room is pruned from the
// registry so stale rooms do not accumulate across reconnects.
func (r *Registry) Leave(room string, memberID string) {
	current, ok := r.rooms.Get(room)
	if !ok {
		return
	}

	current.members.Delete(memberID)

	if current.members.Length() == 0 {
		r.rooms.Delete(room)
	}
}

// LeaveAll removes memberID from every room it belongs to, used when a
// socket disconnects.
func (r *Registry) LeaveAll(memberID string) {
	for _, room := range r.rooms.Keys() {
		r.Leave(room, memberID)
	}
}

// Count returns the number of currently active rooms, for admin reporting.
func (r *Registry) Count() int {
	return r.rooms.Length()
}

// Members returns a snapshot of the current members of room.
func (r *Registry) Members(room string) []string {
	current, ok := r.rooms.Get(room)
	if !ok {
		return nil
	}

	out := make([]string, 0, current.members.Length())
	current.members.Iterate(func(member string) {
		out = append(out, member)
	})

	return out
}

// Broadcast delivers event to every member of room except excludeMemberID
// (typically the socket whose write caused the refresh), per invariant 9
// (§9): the originator never receives its own echo.
func (r *Registry) Broadcast(
	sender Sender,
	room string,
	excludeMemberID string,
	event wire.RefreshEvent,
) []error {
	current, ok := r.rooms.Get(room)
	if !ok {
		return nil
	}

	var errs []error

	current.members.Iterate(func(member string) {
		if member == excludeMemberID {
			return
		}

		if err := sender.SendRefresh(member, event); err != nil {
			errs = append(errs, err)
		}
	})

	return errs
}
