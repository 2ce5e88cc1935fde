// Package election implements the ring-based leader election every replica
// runs among its peers.
//
// Grounded on original_source/TP2/servidor/src/eleccion/eleccion.rs: peers
// are addressed by port in the fixed range config.MinPeerPort..MaxPeerPort,
// ordered ascending, wrapping from the top back to the bottom (spec
// invariant 4). A replica starting an election sends MensajeEleccion
// carrying its own port as the sole candidate to its ring-successor; each
// hop appends its own port to the candidate list (unless already present,
// which means the message has gone all the way around) and forwards again.
// When a replica sees its own port already in the list, the candidate with
// the lowest port wins and that replica sends MensajeCoordinador around the
// ring instead.
//
// Structurally this follows the teacher's idiom (internal/cluster): all
// election state lives in one struct guarded by a mutex, and everything
// else reaches it only through exported methods, mirroring how Node in
// node.go is driven purely through its exported methods. No goroutine
// owns the state.
package election

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/axel-zielonka/tp2-delivery/internal/config"
	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

// State is the replica's belief about leadership.
type State int

const (
	StateFollower State = iota
	StateCandidate
	StateLeader
)

func (s State) String() string {
	switch s {
	case StateFollower:
		return "follower"
	case StateCandidate:
		return "candidate"
	case StateLeader:
		return "leader"
	default:
		return "unknown"
	}
}

// Transport sends election-protocol messages to a specific peer address and
// waits for the ack the original protocol requires of every ring hop.
// internal/replica supplies the concrete implementation (a short-lived dial, per
// spec.md §4.1, distinct from the long-lived peer connections the
// coordinator uses for broadcasts).
type Transport interface {
	SendElection(addr string, msg wire.MensajeEleccion) error
	SendCoordinator(addr string, msg wire.MensajeCoordinador) error
	SendWhoIsCoordinator(addr string) (wire.QuienEsCoordinador, error)
}

// LeaderChangeFunc is invoked whenever the believed leader changes,
// including the replica's own promotion to leader.
type LeaderChangeFunc func(leaderAddr string, becameLeader bool)

// Election owns one replica's leadership state.
type Election struct {
	selfAddr string
	selfPort int
	ring     []int // peer ports, ascending, includes self

	transport Transport
	onChange  LeaderChangeFunc

	mu          sync.Mutex
	state       State
	leaderAddr  string
	inProgress  bool
}

// New builds an Election for selfAddr ("host:port") among the given peer
// ports (which must include selfPort; duplicates are ignored).
func New(selfAddr string, selfPort int, peerPorts []int, t Transport, onChange LeaderChangeFunc) *Election {
	ring := dedupSorted(append([]int{selfPort}, peerPorts...))
	return &Election{
		selfAddr:  selfAddr,
		selfPort:  selfPort,
		ring:      ring,
		transport: t,
		onChange:  onChange,
		state:     StateFollower,
	}
}

func dedupSorted(ports []int) []int {
	seen := make(map[int]bool, len(ports))
	out := ports[:0:0]
	for _, p := range ports {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// portAddr renders a ring port as a dialable address, assuming every peer
// runs on localhost per the original system's single-host test harness.
func portAddr(port int) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}

// successor returns the next port after p in the ring, wrapping around
// (spec invariant 4).
func (e *Election) successor(p int) int {
	for i, port := range e.ring {
		if port == p {
			return e.ring[(i+1)%len(e.ring)]
		}
	}
	return p
}

// State returns the current belief.
func (e *Election) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Leader returns the believed leader address, or "" if unknown.
func (e *Election) Leader() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leaderAddr
}

// IsLeader reports whether this replica currently believes itself the
// leader.
func (e *Election) IsLeader() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateLeader
}

// Start kicks off a new election, unless one is already running. Safe to
// call repeatedly (e.g. on ping timeout) without piling up elections.
func (e *Election) Start() {
	e.mu.Lock()
	if e.inProgress {
		e.mu.Unlock()
		return
	}
	e.inProgress = true
	e.state = StateCandidate
	e.leaderAddr = ""
	e.mu.Unlock()

	e.forward(wire.MensajeEleccion{Candidatos: []string{e.selfAddr}})
}

// forward sends msg to the ring successor, retrying with exponential
// backoff up to config.MaxRetries times (grounded on the teacher's
// Replicator.sendReplicateRequest). Exhausting retries means the successor
// is presumed dead; forward skips past it and tries the next ring member,
// continuing until some hop acks or the ring is exhausted.
func (e *Election) forward(msg wire.MensajeEleccion) {
	next := e.successor(e.selfPort)
	visited := map[int]bool{e.selfPort: true}

	for !visited[next] {
		addr := portAddr(next)
		if e.sendWithRetry(func() error { return e.transport.SendElection(addr, msg) }) {
			return
		}
		visited[next] = true
		next = e.successor(next)
	}

	// The message made it all the way around without a single live hop:
	// every peer is down, so this replica declares itself leader outright.
	e.declareSelfLeader()
}

// sendWithRetry attempts send up to config.MaxRetries times with doubling
// backoff, returning true on the first success.
func (e *Election) sendWithRetry(send func() error) bool {
	backoff := config.RingHopBackoffBase
	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		if err := send(); err == nil {
			return true
		}
		if attempt < config.MaxRetries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return false
}

// HandleElectionMessage processes an incoming MensajeEleccion hop.
func (e *Election) HandleElectionMessage(msg wire.MensajeEleccion) {
	for _, c := range msg.Candidatos {
		if c == e.selfAddr {
			// The message has circled back: decide the winner and switch to
			// announcing it instead of forwarding candidates further.
			winner := lowestPort(msg.Candidatos)
			if winner == e.selfAddr {
				e.declareSelfLeader()
			} else {
				e.mu.Lock()
				e.state = StateFollower
				e.leaderAddr = winner
				e.mu.Unlock()
				if e.onChange != nil {
					e.onChange(winner, false)
				}
				e.forwardCoordinator(wire.MensajeCoordinador{Coordinador: winner})
			}
			return
		}
	}

	e.mu.Lock()
	e.state = StateCandidate
	e.inProgress = true
	e.mu.Unlock()

	msg.Candidatos = append(msg.Candidatos, e.selfAddr)
	e.forward(msg)
}

// lowestPort picks the winning candidate by comparing the numeric port
// suffix of each "host:port" address (lowest-port-wins tie-break).
func lowestPort(addrs []string) string {
	best := addrs[0]
	bestPort := portOf(best)
	for _, a := range addrs[1:] {
		if p := portOf(a); p < bestPort {
			bestPort = p
			best = a
		}
	}
	return best
}

func portOf(addr string) int {
	var port int
	fmt.Sscanf(addr, "127.0.0.1:%d", &port)
	return port
}

// declareSelfLeader finalizes this replica's own promotion and announces it
// around the ring.
func (e *Election) declareSelfLeader() {
	e.mu.Lock()
	e.state = StateLeader
	e.leaderAddr = e.selfAddr
	e.mu.Unlock()

	log.Printf("election: %s becomes leader", e.selfAddr)
	if e.onChange != nil {
		e.onChange(e.selfAddr, true)
	}
	e.forwardCoordinator(wire.MensajeCoordinador{Coordinador: e.selfAddr})
}

// forwardCoordinator circulates the winner announcement once around the
// ring, the same successor-skipping logic as forward.
func (e *Election) forwardCoordinator(msg wire.MensajeCoordinador) {
	next := e.successor(e.selfPort)
	visited := map[int]bool{e.selfPort: true}
	for !visited[next] {
		addr := portAddr(next)
		if e.sendWithRetry(func() error { return e.transport.SendCoordinator(addr, msg) }) {
			e.mu.Lock()
			e.inProgress = false
			e.mu.Unlock()
			return
		}
		visited[next] = true
		next = e.successor(next)
	}
	e.mu.Lock()
	e.inProgress = false
	e.mu.Unlock()
}

// HandleCoordinatorMessage processes an incoming MensajeCoordinador
// announcement, adopting the winner and forwarding once around the ring
// (stopping once it reaches a replica that has already adopted it).
func (e *Election) HandleCoordinatorMessage(msg wire.MensajeCoordinador) {
	e.mu.Lock()
	already := e.leaderAddr == msg.Coordinador && e.state != StateCandidate
	e.leaderAddr = msg.Coordinador
	e.inProgress = false
	if msg.Coordinador == e.selfAddr {
		e.state = StateLeader
	} else {
		e.state = StateFollower
	}
	e.mu.Unlock()

	if e.onChange != nil {
		e.onChange(msg.Coordinador, msg.Coordinador == e.selfAddr)
	}
	if already {
		return
	}
	if msg.Coordinador != e.selfAddr {
		e.forwardCoordinator(msg)
	}
}

// HandleWhoIsCoordinator answers a peer's WhoIsCoordinator probe. Per
// spec.md, the reply is QuienEsCoordinador when a leader is known, or the
// bare "Ack" string otherwise (original_source/TP2/servidor/src/server/ping.rs:58-65)
// — a replica with no belief never self-declares just because it was asked;
// only the ring algorithm may promote a replica to leader.
func (e *Election) HandleWhoIsCoordinator() (wire.QuienEsCoordinador, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.leaderAddr == "" {
		return wire.QuienEsCoordinador{}, false
	}
	return wire.QuienEsCoordinador{DireccionCoordinador: e.leaderAddr}, true
}

// InElection reports whether a ring election is currently in progress, so
// the pinger can withhold liveness probes while one is underway (spec.md
// §4.5: "if self is not leader and not currently in election").
func (e *Election) InElection() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inProgress
}
