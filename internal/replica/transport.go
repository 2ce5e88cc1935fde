// Package replica wires every component (election, coordinator, storage,
// hub, reaper/pinger, admin API) into one running process, the way the
// teacher's cmd/server/main.go wires store, cluster.Membership, and
// cluster.Replicator together before starting its Gin router.
package replica

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/axel-zielonka/tp2-delivery/internal/config"
	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

// peerTransport implements election.Transport and the pinger's dial
// function over short-lived TCP connections, one per probe — the original
// system does not keep persistent sockets open for election traffic, only
// for the long-lived client/peer sessions the hub owns.
type peerTransport struct {
	dialTimeout time.Duration
}

func newPeerTransport() *peerTransport {
	return &peerTransport{dialTimeout: config.RingHopTimeout}
}

func (t *peerTransport) dial(addr string) (net.Conn, error) {
	c, err := net.DialTimeout("tcp", addr, t.dialTimeout)
	if err != nil {
		return nil, err
	}
	c.SetDeadline(time.Now().Add(t.dialTimeout))
	return c, nil
}

// SendElection delivers msg and waits for an Ack.
func (t *peerTransport) SendElection(addr string, msg wire.MensajeEleccion) error {
	return t.sendAndExpectAck(addr, msg)
}

// SendCoordinator delivers msg and waits for an Ack.
func (t *peerTransport) SendCoordinator(addr string, msg wire.MensajeCoordinador) error {
	return t.sendAndExpectAck(addr, msg)
}

// SendWhoIsCoordinator sends the WhoIsCoordinator control string and reads
// back the peer's believed leader.
func (t *peerTransport) SendWhoIsCoordinator(addr string) (wire.QuienEsCoordinador, error) {
	c, err := t.dial(addr)
	if err != nil {
		return wire.QuienEsCoordinador{}, err
	}
	defer c.Close()

	if err := wire.WriteLine(c, wire.ControlWhoIsCoordinator); err != nil {
		return wire.QuienEsCoordinador{}, err
	}

	line, _, err := readOneLine(c)
	if err != nil {
		return wire.QuienEsCoordinador{}, err
	}

	msg, kind, err := wire.Decode(line)
	if err != nil {
		return wire.QuienEsCoordinador{}, err
	}
	if kind == "Ack" {
		return wire.QuienEsCoordinador{}, fmt.Errorf("replica: peer %s knows no leader", addr)
	}
	resp, ok := msg.(*wire.QuienEsCoordinador)
	if !ok {
		return wire.QuienEsCoordinador{}, fmt.Errorf("replica: unexpected reply to WhoIsCoordinator from %s", addr)
	}
	return *resp, nil
}

func (t *peerTransport) sendAndExpectAck(addr string, msg any) error {
	c, err := t.dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	line, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	if err := wire.WriteLine(c, line); err != nil {
		return err
	}

	reply, _, err := readOneLine(c)
	if err != nil {
		return err
	}
	if reply != wire.ControlAck && reply != wire.ControlACK {
		return fmt.Errorf("replica: unexpected reply from %s: %q", addr, reply)
	}
	return nil
}

// pingLeader opens a fresh connection to leaderAddr, sends a PingMessage,
// and waits for an Ack within config.RingHopTimeout (spec.md §4.5 reuses
// the same 3-second ack budget as election hops).
func (t *peerTransport) pingLeader(leaderAddr, selfAddr string) error {
	return t.sendAndExpectAck(leaderAddr, wire.MensajePing{IDEnviador: selfAddr})
}

// sendRaw delivers an already-encoded line to addr without waiting for a
// reply, for coordinator.BroadcastStateDelta's best-effort fan-out
// (spec.md §4.2: "failures are logged and ignored").
func (t *peerTransport) sendRaw(addr, line string) error {
	c, err := t.dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()
	return wire.WriteLine(c, line)
}

// peerWriter adapts peerTransport into conn.Writer for the coordinator's
// peer-link map, so broadcasting a delta is just another Writer.Send call.
type peerWriter struct {
	addr      string
	transport *peerTransport
}

func (w *peerWriter) Send(line string) {
	if err := w.transport.sendRaw(w.addr, line); err != nil {
		log.Printf("replica: broadcast to peer %s failed: %v", w.addr, err)
	}
}

func readOneLine(c net.Conn) (string, bool, error) {
	r := wire.NewLineReader(c)
	line, err := r.ReadLine()
	if err != nil {
		return "", false, err
	}
	return line, true, nil
}
