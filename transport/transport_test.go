package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/znsocket/znsocket-go/yabase64"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
	"github.com/znsocket/znsocket-go/transport"
	"github.com/znsocket/znsocket-go/wire"
)

// loopback spins up a real websocket echo server and returns client and
// server *Transport wrappers bound to the two ends of the same
// connection, so Emit/HandleChunk can be exercised end-to-end.
func loopback(t *testing.T) (client *transport.Transport, server *transport.Transport, cleanup func()) {
	t.Helper()

	serverConnCh := make(chan *websocket.Conn, 1)

	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		serverConnCh <- conn
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	clientConn, _, err := websocket.Dial(ctx, "ws"+httpServer.URL[len("http"):], nil)
	require.NoError(t, err)

	serverConn := <-serverConnCh

	cleanup = func() {
		cancel()
		_ = clientConn.Close(websocket.StatusNormalClosure, "")
		_ = serverConn.Close(websocket.StatusNormalClosure, "")
		httpServer.Close()
	}

	return transport.New(clientConn), transport.New(serverConn), cleanup
}

func TestTransport_EmitSmallPayloadIsSingleFrame(t *testing.T) {
	t.Parallel()

	client, server, cleanup := loopback(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, client.Emit(ctx, wire.EventJoin, wire.JoinRequest{Room: "myroom"}))

	_, raw, err := server.Raw().Read(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
}

func TestTransport_HandleChunkRejectsInvalidBase64(t *testing.T) {
	t.Parallel()

	server := transport.New(nil).WithChunkSize(8)

	env, err := server.HandleChunk(wire.ChunkFrame{ID: "x", Seq: 0, Total: 1, Data: "not-base64!!"})
	require.Error(t, err)
	require.Nil(t, env)
}

func TestTransport_HandleChunkAssemblesOutOfOrderPieces(t *testing.T) {
	t.Parallel()

	tr := transport.New(nil)

	payload := []byte(`{"event":"refresh","data":{}}`)

	chunks := splitForTest(payload, 10)

	var env *wireEnvelopeResult

	for i := len(chunks) - 1; i >= 0; i-- {
		result, err := tr.HandleChunk(chunks[i])
		require.NoError(t, err)

		if result != nil {
			env = &wireEnvelopeResult{event: result.Event}
		}
	}

	require.NotNil(t, env)
	require.Equal(t, "refresh", env.event)
}

type wireEnvelopeResult struct {
	event string
}

func splitForTest(payload []byte, size int) []wire.ChunkFrame {
	total := (len(payload) + size - 1) / size

	frames := make([]wire.ChunkFrame, 0, total)

	for seq := 0; seq < total; seq++ {
		start := seq * size
		end := start + size
		if end > len(payload) {
			end = len(payload)
		}

		frames = append(frames, wire.ChunkFrame{
			ID:    "chunk-id",
			Seq:   seq,
			Total: total,
			Data:  yabase64.ToString(payload[start:end]),
		})
	}

	return frames
}
