// Package transport implements the chunked message transport of spec
// §4.2: payloads that exceed the configured maximum message size are split
// into fixed-size chunks and written one after another, and reassembled
// with a bounded timeout on the receiving side. A failed chunk write is
// retried with backoff; the sender does not wait for a chunk
// acknowledgement before writing the next chunk.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/znsocket/znsocket-go/yabackoff"
	"github.com/znsocket/znsocket-go/yabase64"
	"github.com/znsocket/znsocket-go/yagzip"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/znsocket/znsocket-go/wire"
)

const (
	// DefaultChunkSize matches spec §4.2's "fixed-size splitting" guidance.
	DefaultChunkSize = 16 * 1024
	// DefaultReassemblyTimeout is the 60s bound from spec §4.2.
	DefaultReassemblyTimeout = 60 * time.Second
	// compressThreshold is the payload size above which outgoing frames
	// are gzip-compressed before chunking, avoiding the overhead for
	// small payloads that would not shrink meaningfully.
	compressThreshold = 256
)

// Envelope is the single-argument event envelope every emit/on uses,
// grounding the "socket.io-style" framing in a single JSON object per
// message instead of a variadic argument list.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	// ID correlates a command envelope with its single reply envelope on a
	// transport with no native per-message ack, per wire.EventReply.
	// Empty on events that never reply (refresh, chunk, chunk:ack).
	ID string `json:"id,omitempty"`
}

// Transport wraps one websocket connection with chunked send/receive.
type Transport struct {
	conn           *websocket.Conn
	chunkSize      int
	maxMessageSize int

	mu      sync.Mutex
	pending map[string]*reassembly

	reassemblyTimeout time.Duration
	ackBackoff        yabackoff.Exponential
	compress          *yagzip.Gzip
}

type reassembly struct {
	total    int
	received map[int][]byte
	timer    *time.Timer
}

// New wraps conn with the default chunk size and reassembly timeout.
func New(conn *websocket.Conn) *Transport {
	return &Transport{
		conn:              conn,
		chunkSize:         DefaultChunkSize,
		maxMessageSize:    DefaultChunkSize,
		pending:           make(map[string]*reassembly),
		reassemblyTimeout: DefaultReassemblyTimeout,
		ackBackoff:        yabackoff.NewExponential(10*time.Millisecond, 2, time.Second, 0),
		compress:          yagzip.NewGzip(),
	}
}

// WithChunkSize overrides the fixed per-chunk split size. If no
// WithMaxMessageSize call follows, the chunking threshold tracks this same
// value, matching the single-field behavior of earlier releases.
func (t *Transport) WithChunkSize(size int) *Transport {
	t.chunkSize = size
	t.maxMessageSize = size

	return t
}

// WithMaxMessageSize overrides the envelope size above which Emit switches
// from a single frame to chunked sending, independent of the fixed
// per-chunk size set by WithChunkSize (spec §4.2 distinguishes
// max_message_size_bytes from the chunk size).
func (t *Transport) WithMaxMessageSize(size int) *Transport {
	t.maxMessageSize = size

	return t
}

// WithReassemblyTimeout overrides the default reassembly deadline.
func (t *Transport) WithReassemblyTimeout(d time.Duration) *Transport {
	t.reassemblyTimeout = d

	return t
}

// Emit sends a single event, transparently chunking the payload if it
// exceeds the configured maximum message size (spec §4.2).
func (t *Transport) Emit(ctx context.Context, event string, payload any) error {
	return t.EmitWithID(ctx, event, "", payload)
}

// EmitWithID is Emit with an explicit Envelope.ID, used to correlate a
// command reply (wire.EventReply) with the request that produced it.
func (t *Transport) EmitWithID(ctx context.Context, event string, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("transport: marshal %s payload: %w", event, err)
	}

	envelope, err := json.Marshal(Envelope{Event: event, Data: data, ID: id})
	if err != nil {
		return fmt.Errorf("transport: marshal envelope: %w", err)
	}

	if len(envelope) > compressThreshold {
		zipped, zerr := t.compress.Zip(envelope)
		if zerr == nil {
			envelope = zipped
		}
	}

	if len(envelope) <= t.maxMessageSize {
		return t.conn.Write(ctx, websocket.MessageText, envelope)
	}

	return t.sendChunked(ctx, envelope)
}

// maxChunkWriteAttempts bounds the ackBackoff retry loop in sendChunked so a
// connection that never recovers fails the emit instead of retrying forever.
const maxChunkWriteAttempts = 5

func (t *Transport) sendChunked(ctx context.Context, payload []byte) error {
	id := uuid.NewString()

	total := (len(payload) + t.chunkSize - 1) / t.chunkSize

	t.ackBackoff.Reset()

	for seq := 0; seq < total; seq++ {
		start := seq * t.chunkSize
		end := min(start+t.chunkSize, len(payload))

		frame := wire.ChunkFrame{
			ID:    id,
			Seq:   seq,
			Total: total,
			Data:  yabase64.ToString(payload[start:end]),
		}

		raw, err := json.Marshal(frame)
		if err != nil {
			return fmt.Errorf("transport: marshal chunk %d/%d: %w", seq, total, err)
		}

		if err := t.writeChunkWithRetry(ctx, raw); err != nil {
			return fmt.Errorf("transport: write chunk %d/%d: %w", seq, total, err)
		}
	}

	return nil
}

// writeChunkWithRetry writes a single chunk frame, retrying through
// ackBackoff on a transient write failure instead of failing the whole
// chunked send on the first dropped frame.
func (t *Transport) writeChunkWithRetry(ctx context.Context, raw []byte) error {
	var err error

	for attempt := 0; attempt < maxChunkWriteAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.ackBackoff.Next()):
			}
		}

		if err = t.conn.Write(ctx, websocket.MessageText, raw); err == nil {
			return nil
		}
	}

	return err
}

// HandleChunk feeds one received chunk frame into the reassembly buffer.
// It returns the fully reassembled, decompressed envelope once the last
// chunk for id arrives, or (nil, nil) while more chunks are still
// expected.
func (t *Transport) HandleChunk(frame wire.ChunkFrame) (*Envelope, error) {
	data, err := yabase64.ToBytes(frame.Data)
	if err != nil {
		return nil, fmt.Errorf("transport: decode chunk %s[%d]: %w", frame.ID, frame.Seq, err)
	}

	t.mu.Lock()

	entry, ok := t.pending[frame.ID]
	if !ok {
		entry = &reassembly{
			total:    frame.Total,
			received: make(map[int][]byte, frame.Total),
		}
		entry.timer = time.AfterFunc(t.reassemblyTimeout, func() {
			t.mu.Lock()
			delete(t.pending, frame.ID)
			t.mu.Unlock()
		})
		t.pending[frame.ID] = entry
	}

	entry.received[frame.Seq] = data

	complete := len(entry.received) == entry.total

	if complete {
		entry.timer.Stop()
		delete(t.pending, frame.ID)
	}

	t.mu.Unlock()

	if !complete {
		return nil, nil
	}

	full := make([]byte, 0, entry.total*t.chunkSize)
	for seq := 0; seq < entry.total; seq++ {
		piece, ok := entry.received[seq]
		if !ok {
			return nil, fmt.Errorf("transport: chunk %s missing sequence %d", frame.ID, seq)
		}

		full = append(full, piece...)
	}

	if unzipped, zerr := t.compress.Unzip(full); zerr == nil {
		full = unzipped
	}

	var envelope Envelope
	if err := json.Unmarshal(full, &envelope); err != nil {
		return nil, fmt.Errorf("transport: unmarshal reassembled envelope: %w", err)
	}

	return &envelope, nil
}

// Close closes the underlying connection with a normal closure status.
func (t *Transport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "")
}

// Raw exposes the wrapped websocket connection for callers that need to
// read/write frames outside the chunked Emit/HandleChunk surface (e.g.
// the dispatcher's read loop).
func (t *Transport) Raw() *websocket.Conn {
	return t.conn
}
