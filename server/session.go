package server

import (
	"context"
	"encoding/json"

	"github.com/znsocket/znsocket-go/yalogger"
	"github.com/znsocket/znsocket-go/adapter"
	"github.com/znsocket/znsocket-go/connstate"
	"github.com/znsocket/znsocket-go/dispatch"
	"github.com/znsocket/znsocket-go/rooms"
	"github.com/znsocket/znsocket-go/store"
	"github.com/znsocket/znsocket-go/transport"
	"github.com/znsocket/znsocket-go/wire"
	"github.com/znsocket/znsocket-go/wireerr"
)

// Session owns one socket's read loop: it gates every incoming event through
// connstate.Machine and fans it out to the room registry, adapter registry
// or command dispatcher, per spec §5's serial-per-socket scheduling model.
type Session[T store.Container] struct {
	id         string
	transport  *transport.Transport
	machine    *connstate.Machine
	dispatcher *dispatch.Dispatcher[T]
	backend    store.Store[T]
	rooms      *rooms.Registry
	adapters   *adapter.Registry
	hub        *Hub
	log        yalogger.Logger
}

// NewSession wires together one connected socket's session state.
func NewSession[T store.Container](
	id string,
	t *transport.Transport,
	machine *connstate.Machine,
	dispatcher *dispatch.Dispatcher[T],
	backend store.Store[T],
	roomRegistry *rooms.Registry,
	adapterRegistry *adapter.Registry,
	hub *Hub,
	log yalogger.Logger,
) *Session[T] {
	return &Session[T]{
		id:         id,
		transport:  t,
		machine:    machine,
		dispatcher: dispatcher,
		backend:    backend,
		rooms:      roomRegistry,
		adapters:   adapterRegistry,
		hub:        hub,
		log:        log.WithField("socket_id", id),
	}
}

// Run blocks reading frames off the socket until the connection closes or
// ctx is cancelled, then tears the session down.
func (s *Session[T]) Run(ctx context.Context) {
	s.hub.Register(s.id, s.transport)

	if err := s.machine.Connect(ctx); err != nil {
		s.log.Errorf("connect transition failed: %s", err.Error())

		return
	}

	defer s.teardown()

	for {
		_, raw, err := s.transport.Raw().Read(ctx)
		if err != nil {
			return
		}

		env, handled := s.decodeFrame(raw)
		if !handled {
			continue
		}

		if env == nil {
			continue // partial chunk, awaiting the rest
		}

		s.handleEnvelope(ctx, *env)
	}
}

func (s *Session[T]) teardown() {
	ctx := context.Background()

	_ = s.machine.BeginClose(ctx)
	s.rooms.LeaveAll(s.id)
	s.adapters.Disconnect(s.id)
	_ = s.machine.Disconnect(ctx)
	s.hub.Unregister(s.id)
	_ = s.transport.Close()
}

// decodeFrame distinguishes a raw chunk frame (no "event" field) from a
// normal envelope, and reassembles chunked payloads through the transport.
// handled is false for a frame that failed to decode at all.
func (s *Session[T]) decodeFrame(raw []byte) (env *transport.Envelope, handled bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		s.log.Warnf("dropping malformed frame: %s", err.Error())

		return nil, false
	}

	if _, isEnvelope := probe["event"]; isEnvelope {
		var e transport.Envelope
		if err := json.Unmarshal(raw, &e); err != nil {
			s.log.Warnf("dropping malformed envelope: %s", err.Error())

			return nil, false
		}

		return &e, true
	}

	var frame wire.ChunkFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.log.Warnf("dropping frame that is neither envelope nor chunk: %s", err.Error())

		return nil, false
	}

	reassembled, err := s.transport.HandleChunk(frame)
	if err != nil {
		s.log.Warnf("chunk reassembly failed for %s: %s", frame.ID, err.Error())

		return nil, true
	}

	if reassembled == nil {
		return nil, true
	}

	_ = s.transport.Emit(context.Background(), wire.EventChunkAck, wire.ChunkAck{ID: frame.ID, Seq: frame.Seq})

	return reassembled, true
}

func (s *Session[T]) handleEnvelope(ctx context.Context, env transport.Envelope) {
	switch env.Event {
	case wire.EventJoin:
		s.handleJoin(ctx, env)
	case wire.EventRegisterAdapter:
		s.handleRegisterAdapter(ctx, env)
	case wire.EventCheckAdapter:
		s.handleCheckAdapter(ctx, env)
	case wire.EventAdapterExists:
		s.handleAdapterExists(ctx, env)
	case wire.EventAdapterCallReply:
		s.handleAdapterCallReply(env)
	case wire.EventChunkAck:
		// best-effort ack, nothing to correlate against on the receive side
	default:
		s.handleCommand(ctx, env)
	}
}

func (s *Session[T]) handleJoin(ctx context.Context, env transport.Envelope) {
	var req wire.JoinRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		s.replyError(ctx, env.ID, wireerr.Data("invalid join payload"))

		return
	}

	if err := s.machine.Join(ctx, req.Room); err != nil {
		s.replyError(ctx, env.ID, wireerr.Response(err.Error()))

		return
	}

	s.rooms.Join(req.Room, s.id)
	s.reply(ctx, env.ID, nil)
}

func (s *Session[T]) handleRegisterAdapter(ctx context.Context, env transport.Envelope) {
	var req wire.KeyRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		s.replyError(ctx, env.ID, wireerr.Data("invalid register_adapter payload"))

		return
	}

	methods := make([]adapter.Method, 0, len(req.Methods))

	for _, name := range req.Methods {
		method, ok := adapter.ParseMethod(name)
		if !ok {
			s.replyError(ctx, env.ID, wireerr.Data("unknown adapter method: "+name))

			return
		}

		methods = append(methods, method)
	}

	caps, err := adapter.PackCapabilities(methods...)
	if err != nil {
		s.replyError(ctx, env.ID, wireerr.Data(err.Error()))

		return
	}

	if s.adapters.Exists(req.Key) {
		s.replyError(ctx, env.ID, wireerr.KeyErr("adapter already registered: "+req.Key))

		return
	}

	exists, serr := s.backend.Exists(ctx, req.Key)
	if serr != nil {
		s.replyError(ctx, env.ID, wireerr.Response(serr.Error()))

		return
	}

	if exists {
		s.replyError(ctx, env.ID, wireerr.KeyErr("key already has data in storage: "+req.Key))

		return
	}

	if werr := s.adapters.Register(req.Key, s.id, caps); werr != nil {
		s.replyError(ctx, env.ID, werr)

		return
	}

	s.reply(ctx, env.ID, nil)
}

func (s *Session[T]) handleCheckAdapter(ctx context.Context, env transport.Envelope) {
	var req wire.KeyRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		s.replyError(ctx, env.ID, wireerr.Data("invalid check_adapter payload"))

		return
	}

	s.reply(ctx, env.ID, s.adapters.Exists(req.Key))
}

func (s *Session[T]) handleAdapterExists(ctx context.Context, env transport.Envelope) {
	var req wire.KeyRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		s.replyError(ctx, env.ID, wireerr.Data("invalid adapter_exists payload"))

		return
	}

	s.reply(ctx, env.ID, s.adapters.Exists(req.Key))
}

func (s *Session[T]) handleAdapterCallReply(env transport.Envelope) {
	var reply wire.AdapterCallReply
	if err := json.Unmarshal(env.Data, &reply); err != nil {
		s.log.Warnf("dropping malformed adapter call reply: %s", err.Error())

		return
	}

	s.hub.Deliver(reply)
}

func (s *Session[T]) handleCommand(ctx context.Context, env transport.Envelope) {
	room, joinErr := s.machine.RequireJoined(ctx)
	if joinErr != nil {
		s.replyError(ctx, env.ID, wireerr.Response(joinErr.Error()))

		return
	}

	var req wire.CommandRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		s.replyError(ctx, env.ID, wireerr.Data("invalid "+env.Event+" payload"))

		return
	}

	cmd := dispatch.Command{Name: env.Event, Args: req.Args}

	value, err := s.dispatcher.Execute(ctx, s.id, room, s.hub, cmd)
	if err != nil {
		s.replyError(ctx, env.ID, err)

		return
	}

	s.reply(ctx, env.ID, value)
}

func (s *Session[T]) reply(ctx context.Context, id string, value any) {
	if id == "" {
		return
	}

	if err := s.transport.EmitWithID(ctx, wire.EventReply, id, wire.ReplyPayload{Value: value}); err != nil {
		s.log.Warnf("failed to send reply %s: %s", id, err.Error())
	}
}

func (s *Session[T]) replyError(ctx context.Context, id string, err wireerr.Error) {
	if id == "" {
		return
	}

	msg := wireerr.ToWire(err)

	payload := wire.ReplyPayload{Error: &wire.ErrorPayload{Msg: msg.Msg, Type: msg.Type}}

	if werr := s.transport.EmitWithID(ctx, wire.EventReply, id, payload); werr != nil {
		s.log.Warnf("failed to send error reply %s: %s", id, werr.Error())
	}
}
