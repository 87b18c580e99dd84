package connstate_test

import (
	"context"
	"testing"

	"github.com/znsocket/znsocket-go/yacache"
	"github.com/stretchr/testify/require"
	"github.com/znsocket/znsocket-go/connstate"
)

func newMachine(socketID string) *connstate.Machine {
	storage := connstate.NewStorage(yacache.NewMemoryContainer())

	return connstate.NewMachine(storage, socketID)
}

func TestMachine_DispatchRejectedBeforeJoin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newMachine("sock-1")

	_, err := m.RequireJoined(ctx)
	require.NotNil(t, err)
}

func TestMachine_ConnectJoinThenDispatchAllowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newMachine("sock-2")

	require.Nil(t, m.Connect(ctx))
	require.Nil(t, m.Join(ctx, "myroom"))

	room, err := m.RequireJoined(ctx)
	require.Nil(t, err)
	require.Equal(t, "myroom", room)
}

func TestMachine_JoinWithoutConnectFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newMachine("sock-3")

	err := m.Join(ctx, "myroom")
	require.NotNil(t, err)
}

func TestMachine_DisconnectResetsToInitialState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newMachine("sock-4")

	require.Nil(t, m.Connect(ctx))
	require.Nil(t, m.Join(ctx, "myroom"))
	require.Nil(t, m.BeginClose(ctx))
	require.Nil(t, m.Disconnect(ctx))

	_, err := m.RequireJoined(ctx)
	require.NotNil(t, err)
}
