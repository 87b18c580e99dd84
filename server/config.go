// Package server wires the storage backend, room/adapter registries and
// command dispatcher of the other packages into a runnable socket
// transport: the process that cmd/znsocket-server actually starts.
package server

import (
	"github.com/znsocket/znsocket-go/yalogger"
)

// Config is the environment/flag-loaded configuration surface of spec §6's
// CLI surface. Field names are converted to SCREAMING_SNAKE_CASE env keys by
// config.LoadConfigStructFromEnv (e.g. Port reads from env var PORT); see
// cmd/znsocket-server for the flag overrides layered on top.
type Config struct {
	Port          uint16 `default:"8080"`
	Storage       string `default:"memory"`
	RedisAddr     string `default:"127.0.0.1:6379"`
	RedisPassword string
	RedisDB       int    `default:"0"`
	AdapterSecret string `default:"znsocket-dev-secret"`

	// MaxMessageSizeBytes is the envelope size above which an outgoing
	// payload is split into chunks (spec §4.2); it also bounds the
	// websocket read limit so an oversized inbound frame is rejected
	// rather than buffered without limit.
	MaxMessageSizeBytes uint `default:"83886080"`
	// ChunkSizeBytes is the fixed size of each chunk once splitting is
	// triggered by MaxMessageSizeBytes, distinct from that threshold per
	// spec §4.2's "fixed-size splitting" guidance.
	ChunkSizeBytes uint `default:"16384"`
	// AdapterCallTimeoutSeconds bounds how long the dispatcher waits for
	// an adapter_get/adapter_set round trip before failing the command
	// with a Timeout error (spec §4.4).
	AdapterCallTimeoutSeconds uint `default:"10"`
	// ChunkReassemblyTimeoutSeconds bounds how long a partially received
	// chunk set is held before being discarded (spec §4.2).
	ChunkReassemblyTimeoutSeconds uint `default:"60"`

	RateLimitEnabled       bool           `default:"false"`
	RateLimitPerWindow     uint8          `default:"100"`
	RateLimitWindowSeconds uint           `default:"60"`
	AdminStatsEnabled      bool           `default:"false"`
	LogLevel               yalogger.Level `default:"info"`
}
