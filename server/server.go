package server

import (
	"context"
	"net/http"
	"time"

	"github.com/znsocket/znsocket-go/yacache"
	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/znsocket/znsocket-go/yafsm"
	"github.com/znsocket/znsocket-go/yalogger"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/znsocket/znsocket-go/adapter"
	"github.com/znsocket/znsocket-go/connstate"
	"github.com/znsocket/znsocket-go/dispatch"
	"github.com/znsocket/znsocket-go/rooms"
	"github.com/znsocket/znsocket-go/store"
	"github.com/znsocket/znsocket-go/transport"
)

// Server is a running instance of the socket transport of spec §4/§6: a
// gin engine that upgrades a single `/socket` route to a websocket and
// hands each connection to its own Session.
type Server[T store.Container] struct {
	engine     *gin.Engine
	backend    store.Store[T]
	rooms      *rooms.Registry
	adapters   *adapter.Registry
	dispatcher *dispatch.Dispatcher[T]
	hub        *Hub
	connstates yafsm.FSM
	log        yalogger.Logger
	cfg        Config
}

// New wires the storage backend, room/adapter registries and command
// dispatcher into a ready-to-serve Server. backend is typically the result
// of store.NewStore over either store.NewMemoryContainer() or a *redis.Client,
// per cfg.Storage (see cmd/znsocket-server).
func New[T store.Container](cfg Config, backend store.Store[T], log yalogger.Logger) *Server[T] {
	roomRegistry := rooms.NewRegistry()
	hub := NewHub()

	callTimeout := time.Duration(cfg.AdapterCallTimeoutSeconds) * time.Second

	adapterRegistry := adapter.NewRegistry(cfg.AdapterSecret, callTimeout)

	dispatcher := dispatch.NewDispatcher(backend, roomRegistry, adapterRegistry, hub, log)

	if cfg.RateLimitEnabled {
		dispatcher = dispatcher.WithRateLimit(cfg.RateLimitPerWindow, time.Duration(cfg.RateLimitWindowSeconds)*time.Second)
	}

	srv := &Server[T]{
		backend:    backend,
		rooms:      roomRegistry,
		adapters:   adapterRegistry,
		dispatcher: dispatcher,
		hub:        hub,
		connstates: newConnStateStorage(cfg),
		log:        log,
		cfg:        cfg,
	}

	srv.engine = srv.buildEngine()

	return srv
}

// newConnStateStorage builds the shared FSM storage every Session's
// connstate.Machine is created over. A "redis" cfg.Storage gets its own
// dedicated *redis.Client so connection state survives a single
// process's restart and is visible across a multi-process deployment;
// any other value keeps state in-process via yacache.MemoryContainer.
func newConnStateStorage(cfg Config) yafsm.FSM {
	if cfg.Storage == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		return connstate.NewStorage(client)
	}

	return connstate.NewStorage(yacache.NewMemoryContainer())
}

func (s *Server[T]) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(ctx *gin.Context) {
		if err := s.backend.Ping(ctx.Request.Context()); err != nil {
			ctx.String(http.StatusServiceUnavailable, "storage unreachable")

			return
		}

		ctx.String(http.StatusOK, "ok")
	})

	engine.GET("/socket", s.handleUpgrade)

	if s.cfg.AdminStatsEnabled {
		s.registerAdmin(engine)
	}

	return engine
}

func (s *Server[T]) handleUpgrade(ctx *gin.Context) {
	conn, err := websocket.Accept(ctx.Writer, ctx.Request, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionContextTakeover,
	})
	if err != nil {
		s.log.Warnf("websocket upgrade failed: %s", err.Error())

		return
	}

	socketID := uuid.NewString()

	tr := transport.New(conn)
	if s.cfg.ChunkSizeBytes > 0 {
		tr = tr.WithChunkSize(int(s.cfg.ChunkSizeBytes))
	}

	if s.cfg.MaxMessageSizeBytes > 0 {
		tr = tr.WithMaxMessageSize(int(s.cfg.MaxMessageSizeBytes))
		conn.SetReadLimit(int64(s.cfg.MaxMessageSizeBytes))
	}

	if s.cfg.ChunkReassemblyTimeoutSeconds > 0 {
		tr = tr.WithReassemblyTimeout(time.Duration(s.cfg.ChunkReassemblyTimeoutSeconds) * time.Second)
	}

	machine := connstate.NewMachine(s.connstates, socketID)

	session := NewSession(socketID, tr, machine, s.dispatcher, s.backend, s.rooms, s.adapters, s.hub, s.log)

	session.Run(ctx.Request.Context())
}

// Handler returns the server's http.Handler, for embedding in a larger HTTP
// stack or for httptest.
func (s *Server[T]) Handler() http.Handler {
	return s.engine
}

// Run starts listening on addr (":8080" style) until ctx is cancelled.
func (s *Server[T]) Run(ctx context.Context, addr string) yaerrors.Error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return yaerrors.FromError(http.StatusInternalServerError, err, "server: graceful shutdown failed")
		}

		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return yaerrors.FromError(http.StatusInternalServerError, err, "server: listen failed")
		}

		return nil
	}
}
