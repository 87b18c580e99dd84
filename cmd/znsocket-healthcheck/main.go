// Command znsocket-healthcheck probes a running znsocket-server's
// `/healthz` endpoint and exits 0 if it reports healthy, 1 otherwise —
// meant to be wired into a container orchestrator's healthcheck hook.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

func main() {
	port := flag.Uint("port", 0, "port of the running server, overrides the PORT env var if set")
	timeout := flag.Duration("timeout", 2*time.Second, "request timeout")
	flag.Parse()

	resolvedPort := *port
	if resolvedPort == 0 {
		resolvedPort = envPort()
	}

	if resolvedPort == 0 {
		fmt.Fprintln(os.Stderr, "znsocket-healthcheck: no port given (-port or PORT)")
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}

	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", resolvedPort))
	if err != nil {
		fmt.Fprintf(os.Stderr, "znsocket-healthcheck: request failed: %s\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "znsocket-healthcheck: unhealthy status %d\n", resp.StatusCode)
		os.Exit(1)
	}
}

func envPort() uint {
	value := os.Getenv("PORT")
	if value == "" {
		return 0
	}

	var parsed uint

	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil {
		return 0
	}

	return parsed
}
