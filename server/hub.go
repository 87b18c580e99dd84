package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/znsocket/znsocket-go/transport"
	"github.com/znsocket/znsocket-go/wire"
)

// Hub routes outbound traffic by socket id: refresh broadcasts (rooms.Sender)
// and adapter owner RPCs (adapter.Caller) both need to reach a specific
// connected socket's *transport.Transport, not just any one.
type Hub struct {
	mu         sync.RWMutex
	transports map[string]*transport.Transport

	pendingMu sync.Mutex
	pending   map[string]chan wire.AdapterCallReply
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		transports: make(map[string]*transport.Transport),
		pending:    make(map[string]chan wire.AdapterCallReply),
	}
}

// Register associates socketID with its transport, making it reachable by
// SendRefresh and Call.
func (h *Hub) Register(socketID string, t *transport.Transport) {
	h.mu.Lock()
	h.transports[socketID] = t
	h.mu.Unlock()
}

// Unregister drops socketID, typically once its session loop exits.
func (h *Hub) Unregister(socketID string) {
	h.mu.Lock()
	delete(h.transports, socketID)
	h.mu.Unlock()
}

func (h *Hub) get(socketID string) (*transport.Transport, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	t, ok := h.transports[socketID]

	return t, ok
}

// Count returns the number of currently connected sockets, for admin
// reporting.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.transports)
}

// SendRefresh implements rooms.Sender: it emits a refresh event directly to
// memberID's socket, outside of any room broadcast it may itself trigger.
func (h *Hub) SendRefresh(memberID string, event wire.RefreshEvent) error {
	t, ok := h.get(memberID)
	if !ok {
		return fmt.Errorf("server: socket %s is not connected", memberID)
	}

	return t.Emit(context.Background(), wire.EventRefresh, event)
}

// Call implements adapter.Caller: it emits an adapter:call event to
// ownerID's socket and blocks until the matching adapter:call:reply arrives
// (delivered through Deliver by the owner's session loop) or ctx expires.
func (h *Hub) Call(
	ctx context.Context,
	ownerID string,
	req wire.AdapterCallRequest,
) (wire.AdapterCallReply, error) {
	t, ok := h.get(ownerID)
	if !ok {
		return wire.AdapterCallReply{}, fmt.Errorf("server: adapter owner %s is not connected", ownerID)
	}

	replyCh := make(chan wire.AdapterCallReply, 1)

	h.pendingMu.Lock()
	h.pending[req.CorrelationID] = replyCh
	h.pendingMu.Unlock()

	defer func() {
		h.pendingMu.Lock()
		delete(h.pending, req.CorrelationID)
		h.pendingMu.Unlock()
	}()

	if err := t.Emit(ctx, wire.EventAdapterCall, req); err != nil {
		return wire.AdapterCallReply{}, fmt.Errorf("server: emit adapter:call to %s: %w", ownerID, err)
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return wire.AdapterCallReply{}, ctx.Err()
	}
}

// Deliver hands a received adapter:call:reply envelope to the goroutine
// blocked in Call on the matching CorrelationID, if any is still waiting.
func (h *Hub) Deliver(reply wire.AdapterCallReply) {
	h.pendingMu.Lock()
	ch, ok := h.pending[reply.CorrelationID]
	h.pendingMu.Unlock()

	if !ok {
		return
	}

	select {
	case ch <- reply:
	default:
	}
}
