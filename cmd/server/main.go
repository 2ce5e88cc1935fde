// cmd/server is the entrypoint for one replica of the delivery coordinator.
//
// Example:
//
//	./server --port 8080
//
// Run one instance per port in 8080..8084 to form a full ring (spec.md
// §4.1's fixed MinPeerPort..MaxPeerPort range).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/axel-zielonka/tp2-delivery/internal/replica"
)

func main() {
	// ── Flags ──────────────────────────────────────────────────────────────
	port := flag.Int("port", 8080, "TCP port this replica listens on")
	flag.Parse()

	r := replica.New(*port)
	adminAddr := fmt.Sprintf("127.0.0.1:%d", *port+1000)

	// ── Serve ──────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Printf("replica on :%d starting (admin API on %s)", *port, adminAddr)
		errCh <- r.Run(adminAddr)
	}()

	// ── Shutdown ───────────────────────────────────────────────────────────
	// No in-flight request draining: spec.md's concurrency model has no
	// notion of graceful TCP shutdown, only crash-and-reelect.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("replica stopped: %v", err)
	case <-quit:
		log.Println("shutting down")
	}
}
