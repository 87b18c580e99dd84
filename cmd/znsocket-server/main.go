// Command znsocket-server launches the socket transport of spec §6: a gin
// HTTP server exposing a `/socket` websocket upgrade route plus a
// `/healthz` probe, backed by either the in-memory or Redis storage
// variant of the store package.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/znsocket/znsocket-go/config"
	"github.com/znsocket/znsocket-go/yalogger"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/znsocket/znsocket-go/server"
	"github.com/znsocket/znsocket-go/store"
)

func main() {
	port := flag.Uint("port", 0, "listen port, overrides the PORT env var if set")
	storageFlag := flag.String("storage", "", "storage backend (memory|redis), overrides the STORAGE env var if set")
	flag.Parse()

	bootLog := logrus.NewEntry(logrus.StandardLogger())

	var cfg server.Config

	config.LoadConfigStructFromEnv(&cfg, bootLog)

	if *port != 0 {
		cfg.Port = uint16(*port)
	}

	if *storageFlag != "" {
		cfg.Storage = *storageFlag
	}

	log := yalogger.NewBaseLogger(&yalogger.Config{
		BaseLoggerType:   yalogger.Logrus,
		Level:            cfg.LogLevel,
		TimestampFormat:  "2006-01-02 15:04:05",
		DisableTimestamp: false,
	}).NewLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := fmt.Sprintf(":%d", cfg.Port)

	var runErr error

	switch cfg.Storage {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		backend := store.NewStore(client)
		srv := server.New(cfg, backend, log)
		runErr = srv.Run(ctx, addr)
	default:
		backend := store.NewStore(store.NewMemoryContainer())
		srv := server.New(cfg, backend, log)
		runErr = srv.Run(ctx, addr)
	}

	if runErr != nil {
		log.Fatalf("server exited: %s", runErr.Error())
	}
}
