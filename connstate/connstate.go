// Package connstate implements the client connection state machine of
// spec §4.9: a socket moves disconnected -> connecting -> joined ->
// closing -> disconnected, and command dispatch is only valid while
// joined. Built directly on yafsm, the same way the teacher's own
// Telegram bot state machines were, but with a single fixed transition
// graph instead of a user-defined one.
package connstate

import (
	"context"
	"net/http"

	"github.com/znsocket/znsocket-go/yacache"
	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/znsocket/znsocket-go/yafsm"
)

// Disconnected is the initial and final state: no socket, no room.
type Disconnected struct {
	yafsm.BaseState[Disconnected]
}

// Connecting is entered once the transport handshake completes but
// before the client has joined a room.
type Connecting struct {
	yafsm.BaseState[Connecting]
}

// Joined is entered once the client has successfully joined a room;
// command dispatch is only permitted in this state.
type Joined struct {
	yafsm.BaseState[Joined]
	RoomName string
}

// Closing is entered while a disconnect is in progress (adapter cleanup,
// room leave) but before the socket is fully torn down.
type Closing struct {
	yafsm.BaseState[Closing]
}

// State names as reported by yafsm.State.StateName() (the bare type
// name via reflection) — kept as constants so transition checks don't
// need an instance of the state to compare against.
const (
	nameDisconnected = "Disconnected"
	nameConnecting   = "Connecting"
	nameJoined       = "Joined"
)

// Machine enforces the transition graph above for a single socket id.
type Machine struct {
	entity *yafsm.EntityFSMStorage
}

// NewStorage builds the shared yafsm.FSM every Machine is created from,
// backed by the given cache container (Memory for a single process,
// Redis for a multi-process deployment).
func NewStorage[T yacache.Container](container T) yafsm.FSM {
	return yafsm.NewDefaultFSMStorage[T](yacache.NewCache(container), Disconnected{})
}

// NewMachine returns the per-socket state machine view over storage.
func NewMachine(storage yafsm.FSM, socketID string) *Machine {
	return &Machine{entity: yafsm.NewUserFSMStorage(storage, socketID)}
}

func (m *Machine) currentName(ctx context.Context) (string, yafsm.StateDataMarshalled, yaerrors.Error) {
	name, data, err := m.entity.GetState(ctx)
	if err != nil {
		return "", "", err
	}

	if name == "" {
		return nameDisconnected, data, nil
	}

	return name, data, nil
}

// Connect transitions disconnected -> connecting. It is a no-op if the
// socket is already past this point (idempotent handshake retries).
func (m *Machine) Connect(ctx context.Context) yaerrors.Error {
	name, _, err := m.currentName(ctx)
	if err != nil {
		return err
	}

	if name != nameDisconnected {
		return nil
	}

	return m.entity.SetState(ctx, Connecting{})
}

// Join transitions connecting -> joined, recording roomName.
func (m *Machine) Join(ctx context.Context, roomName string) yaerrors.Error {
	name, _, err := m.currentName(ctx)
	if err != nil {
		return err
	}

	if name != nameConnecting && name != nameJoined {
		return yaerrors.FromString(
			http.StatusConflict,
			"join requires an active connection, current state: "+name,
		)
	}

	return m.entity.SetState(ctx, Joined{RoomName: roomName})
}

// RequireJoined returns the current room name, failing unless the socket
// is in the Joined state — the gate every command dispatch must pass.
func (m *Machine) RequireJoined(ctx context.Context) (string, yaerrors.Error) {
	name, data, err := m.currentName(ctx)
	if err != nil {
		return "", err
	}

	if name != nameJoined {
		return "", yaerrors.FromString(
			http.StatusConflict,
			"command dispatch requires a joined room, current state: "+name,
		)
	}

	var joined Joined

	if err := m.entity.GetStateData(data, &joined); err != nil {
		return "", err
	}

	return joined.RoomName, nil
}

// BeginClose transitions joined -> closing.
func (m *Machine) BeginClose(ctx context.Context) yaerrors.Error {
	return m.entity.SetState(ctx, Closing{})
}

// Disconnect transitions any state back to disconnected, used once
// adapter and room cleanup for the socket has completed.
func (m *Machine) Disconnect(ctx context.Context) yaerrors.Error {
	return m.entity.SetState(ctx, Disconnected{})
}
