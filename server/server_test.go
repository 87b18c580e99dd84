package server_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/znsocket/znsocket-go/yalogger"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/znsocket/znsocket-go/server"
	"github.com/znsocket/znsocket-go/store"
	"github.com/znsocket/znsocket-go/transport"
	"github.com/znsocket/znsocket-go/wire"
)

// testClient is a minimal harness over a single websocket connection:
// enough to join a room, issue a command and read back its reply or an
// unsolicited refresh, without pulling in the client package (which talks
// to a store.Store[T] directly, not over the wire).
type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	tr   *transport.Transport
}

func dial(t *testing.T, wsURL string) *testClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)

	return &testClient{t: t, conn: conn, tr: transport.New(conn)}
}

func (c *testClient) call(event string, payload any) wire.ReplyPayload {
	c.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.NewString()

	require.NoError(c.t, c.tr.EmitWithID(ctx, event, id, payload))

	for {
		_, raw, err := c.conn.Read(ctx)
		require.NoError(c.t, err)

		var env transport.Envelope
		require.NoError(c.t, json.Unmarshal(raw, &env))

		if env.Event != wire.EventReply || env.ID != id {
			continue
		}

		var reply wire.ReplyPayload
		require.NoError(c.t, json.Unmarshal(env.Data, &reply))

		return reply
	}
}

func (c *testClient) readRefresh() wire.RefreshEvent {
	c.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		_, raw, err := c.conn.Read(ctx)
		require.NoError(c.t, err)

		var env transport.Envelope
		require.NoError(c.t, json.Unmarshal(raw, &env))

		if env.Event != wire.EventRefresh {
			continue
		}

		var refresh wire.RefreshEvent
		require.NoError(c.t, json.Unmarshal(env.Data, &refresh))

		return refresh
	}
}

func (c *testClient) close() {
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}

func newTestServer(t *testing.T) (wsURL string, cleanup func()) {
	t.Helper()

	backend := store.NewStore(store.NewMemoryContainer())
	log := yalogger.NewBaseLogger(nil).NewLogger()

	srv := server.New(server.Config{AdapterSecret: "test-secret"}, backend, log)

	httpServer := httptest.NewServer(srv.Handler())

	wsURL = "ws" + httpServer.URL[len("http"):] + "/socket"

	return wsURL, httpServer.Close
}

func TestServer_JoinThenSetGetRoundTrip(t *testing.T) {
	t.Parallel()

	wsURL, cleanup := newTestServer(t)
	defer cleanup()

	client := dial(t, wsURL)
	defer client.close()

	joinReply := client.call(wire.EventJoin, wire.JoinRequest{Room: "myroom"})
	require.Nil(t, joinReply.Error)

	setReply := client.call("set", wire.CommandRequest{Args: []string{"greeting", "hello"}})
	require.Nil(t, setReply.Error)

	getReply := client.call("get", wire.CommandRequest{Args: []string{"greeting"}})
	require.Nil(t, getReply.Error)
	require.Equal(t, "hello", getReply.Value)
}

func TestServer_SetBroadcastsRefreshToOtherRoomMembers(t *testing.T) {
	t.Parallel()

	wsURL, cleanup := newTestServer(t)
	defer cleanup()

	writer := dial(t, wsURL)
	defer writer.close()

	observer := dial(t, wsURL)
	defer observer.close()

	require.Nil(t, writer.call(wire.EventJoin, wire.JoinRequest{Room: "shared"}).Error)
	require.Nil(t, observer.call(wire.EventJoin, wire.JoinRequest{Room: "shared"}).Error)

	require.Nil(t, writer.call("set", wire.CommandRequest{Args: []string{"k", "v"}}).Error)

	refresh := observer.readRefresh()
	require.Equal(t, "k", refresh.Target)
}

func TestServer_CommandBeforeJoinFailsWithResponseError(t *testing.T) {
	t.Parallel()

	wsURL, cleanup := newTestServer(t)
	defer cleanup()

	client := dial(t, wsURL)
	defer client.close()

	reply := client.call("get", wire.CommandRequest{Args: []string{"nokey"}})
	require.NotNil(t, reply.Error)
}

func TestServer_RegisterAdapterRejectsDuplicateKey(t *testing.T) {
	t.Parallel()

	wsURL, cleanup := newTestServer(t)
	defer cleanup()

	owner := dial(t, wsURL)
	defer owner.close()

	other := dial(t, wsURL)
	defer other.close()

	ownerReply := owner.call(wire.EventRegisterAdapter, wire.KeyRequest{Key: "adapter:one", Methods: []string{"get"}})
	require.Nil(t, ownerReply.Error)

	dupReply := other.call(wire.EventRegisterAdapter, wire.KeyRequest{Key: "adapter:one", Methods: []string{"get"}})
	require.NotNil(t, dupReply.Error)
	require.Equal(t, "KeyError", dupReply.Error.Type)

	existsReply := other.call(wire.EventAdapterExists, wire.KeyRequest{Key: "adapter:one"})
	require.Nil(t, existsReply.Error)
	require.Equal(t, true, existsReply.Value)
}
