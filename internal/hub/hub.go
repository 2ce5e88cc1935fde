package hub

import (
	"log"
	"net"

	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

// Dispatcher receives every decoded message read off an accepted
// connection. kind is the shape name Decode reports ("SolicitarPedido",
// "WhoIsCoordinator", ...); msg is nil for control-string messages.
// internal/replica supplies the concrete implementation that routes each
// kind to storage, the coordinator, or the election actor.
type Dispatcher interface {
	Dispatch(session *Session, kind string, msg any)
}

// Hub accepts connections on one listener and hands each to its own
// reader/writer goroutine pair.
type Hub struct {
	dispatcher Dispatcher
}

// New builds a Hub that routes decoded messages to d.
func New(d Dispatcher) *Hub {
	return &Hub{dispatcher: d}
}

// Serve accepts connections on addr, returning only when Listen or Accept
// fails. The listener is not exposed to callers, so Serve has no way to be
// stopped from outside.
func (h *Hub) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("hub: listening on %s", addr)

	for {
		c, err := ln.Accept()
		if err != nil {
			return err
		}
		session := newSession(c)
		go h.readLoop(session)
	}
}

// readLoop frames the connection by newline and dispatches each decoded
// message; unknown lines are logged and dropped (spec.md §4.4).
func (h *Hub) readLoop(s *Session) {
	defer s.Close()

	r := wire.NewLineReader(s.conn)
	for {
		line, err := r.ReadLine()
		if err != nil {
			return
		}
		if line == "" {
			continue
		}

		msg, kind, err := wire.Decode(line)
		if err != nil {
			log.Printf("hub: unrecognized line from %s: %q", s.RemoteAddr, line)
			continue
		}
		h.dispatcher.Dispatch(s, kind, msg)
	}
}
