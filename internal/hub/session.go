// Package hub owns every accepted TCP connection: one reader goroutine and
// one writer goroutine per connection (spec.md §4.4), grounded on the
// Rust original's TcpEnviador actor (common/src/tcp_enviador.rs) translated
// into the teacher's goroutine-per-peer idiom (internal/cluster/node.go's
// one-goroutine-per-peer fan-out, here applied to net.Conn instead of HTTP).
package hub

import (
	"errors"
	"io"
	"log"
	"net"
	"strings"

	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

// outboxSize bounds the writer's buffered channel. The teacher has no
// direct analogue (its peers talk HTTP request/response), so this is sized
// generously for a debugging session rather than derived from measurement.
const outboxSize = 256

// Session owns one accepted connection's lifecycle and implements
// conn.Writer so storage and coordinator can hold a reference to it
// without importing this package.
type Session struct {
	RemoteAddr string

	conn   net.Conn
	outbox chan string
	done   chan struct{}
}

// newSession wraps an accepted connection and starts its writer goroutine.
func newSession(c net.Conn) *Session {
	s := &Session{
		RemoteAddr: c.RemoteAddr().String(),
		conn:       c,
		outbox:     make(chan string, outboxSize),
		done:       make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

// Send enqueues line for delivery without blocking; a closed session drops
// the message silently and a full outbox drops it with a log line, matching
// spec.md §4.4's write-failure policy from the writer's side.
func (s *Session) Send(line string) {
	select {
	case s.outbox <- line:
	case <-s.done:
	default:
		log.Printf("hub: outbox full for %s, dropping message", s.RemoteAddr)
	}
}

// writeLoop is the single owner of s.conn's write side. Broken-pipe errors
// close the session silently; any other I/O error terminates it with a log
// line (spec.md §4.4).
func (s *Session) writeLoop() {
	for {
		select {
		case line := <-s.outbox:
			if err := wire.WriteLine(s.conn, line); err != nil {
				if isBrokenPipe(err) {
					s.Close()
					return
				}
				log.Printf("hub: write error to %s: %v", s.RemoteAddr, err)
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Close terminates the session idempotently.
func (s *Session) Close() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
		s.conn.Close()
	}
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) || strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset")
}
