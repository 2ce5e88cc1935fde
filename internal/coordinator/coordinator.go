// Package coordinator implements the order-orchestration actor that runs
// only on the current leader (spec.md §4.2).
//
// Grounded on the teacher's internal/cluster/replicator.go: a single struct
// holding peer references plus a store handle, with fan-out-to-peers shaped
// exactly like Replicator.ReplicateWrite's goroutine-per-peer broadcast —
// except here there is no quorum to collect (spec.md explicitly drops the
// teacher's N/W/R model in favor of a single authoritative leader), so
// BroadcastStateDelta fires and logs failures instead of waiting on acks.
package coordinator

import (
	"log"
	"sync"
	"time"

	"github.com/axel-zielonka/tp2-delivery/internal/conn"
	"github.com/axel-zielonka/tp2-delivery/internal/storage"
	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

// LeaderChecker reports whether this replica currently believes itself the
// leader; satisfied by *election.Election without importing it here
// (coordinator and election are siblings, neither depends on the other).
type LeaderChecker interface {
	IsLeader() bool
}

// GatewayClient is the payment contract the coordinator drives during order
// orchestration (spec.md §4.2 steps 1 and 5). internal/gatewayclient
// supplies the concrete dialer.
type GatewayClient interface {
	Authorize(dinerAddr string, amount float64) (bool, error)
	Capture(dinerAddr string, amount float64) error
}

// Peer is one other replica's outbound link, held for broadcast fan-out.
type Peer struct {
	Addr     string
	Writer   conn.Writer
	LastSeen time.Time
}

// Phase tracks where a diner's order sits in the orchestration pipeline.
type Phase int

const (
	PhaseAwaitingAuth Phase = iota
	PhaseAwaitingRestaurant
	PhaseAwaitingCourier
	PhaseOnTrip
)

type pendingOrder struct {
	dinerAddr      string
	food           string
	destination    storage.Point
	restaurantAddr string
	courierAddr    string
	phase          Phase
	triedCouriers  map[string]bool
}

// DefaultOrderAmount is the flat price charged per order; spec.md does not
// model a menu or pricing, so orchestration treats every order as this one
// fixed amount when talking to the payment gateway.
const DefaultOrderAmount = 10.0

// Coordinator is active only while its replica is the elected leader; other
// replicas keep one around anyway so that an election win requires no
// extra wiring, but its HandleOrderRequest entry point refuses work when
// IsLeader() is false.
type Coordinator struct {
	selfAddr string
	store    *storage.Store
	leader   LeaderChecker
	gateway  GatewayClient

	mu            sync.Mutex
	peers         map[string]*Peer
	peerOrder     []string
	roundRobinIdx int
	pending       map[string]*pendingOrder
}

// New builds a Coordinator for selfAddr.
func New(selfAddr string, store *storage.Store, leader LeaderChecker, gateway GatewayClient) *Coordinator {
	return &Coordinator{
		selfAddr: selfAddr,
		store:    store,
		leader:   leader,
		gateway:  gateway,
		peers:    make(map[string]*Peer),
		pending:  make(map[string]*pendingOrder),
	}
}

// AddPeer registers addr's outbound writer, idempotently. A peer already
// known just has its LastSeen timestamp refreshed (spec.md §4.2).
func (c *Coordinator) AddPeer(addr string, w conn.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.peers[addr]; ok {
		p.LastSeen = time.Now()
		return
	}
	c.peers[addr] = &Peer{Addr: addr, Writer: w, LastSeen: time.Now()}
	c.peerOrder = append(c.peerOrder, addr)
}

// RemovePeer drops addr from the peer-link map, e.g. after a confirmed
// disconnect.
func (c *Coordinator) RemovePeer(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.peers, addr)
	for i, a := range c.peerOrder {
		if a == addr {
			c.peerOrder = append(c.peerOrder[:i], c.peerOrder[i+1:]...)
			break
		}
	}
}

// PeerCount reports how many peers are currently known, for the admin
// health endpoint.
func (c *Coordinator) PeerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.peerOrder)
}

// RoundRobinPeer returns the next peer address for load-shedding in retry
// paths, cycling through the known peer set. Returns "" if there are none.
func (c *Coordinator) RoundRobinPeer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.peerOrder) == 0 {
		return ""
	}
	addr := c.peerOrder[c.roundRobinIdx%len(c.peerOrder)]
	c.roundRobinIdx++
	return addr
}

// BroadcastStateDelta fans msg out to every known peer, best-effort: a send
// failure is logged and otherwise ignored, trusting the reaper/ping cycle
// to eventually repair divergent peer views (spec.md §4.2).
func (c *Coordinator) BroadcastStateDelta(msg any) {
	line, err := wire.Encode(msg)
	if err != nil {
		log.Printf("coordinator: encode delta %T: %v", msg, err)
		return
	}

	c.mu.Lock()
	peers := make([]*Peer, 0, len(c.peers))
	for _, p := range c.peers {
		peers = append(peers, p)
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p *Peer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("coordinator: broadcast to %s panicked: %v", p.Addr, r)
				}
			}()
			p.Writer.Send(line)
		}(p)
	}
	wg.Wait()
}

// HandleOrder locates the nearest Active courier and offers it the diner's
// delivery, transitioning the courier to Waiting. It reports false if no
// courier was available.
func (c *Coordinator) HandleOrder(dinerAddr string) bool {
	courier, ok := c.store.GetNearestActiveCourier()
	if !ok {
		return false
	}
	c.store.SetCourierStatus(courier.Address, storage.CourierWaiting, dinerAddr)
	courier.Writer.Send(mustEncode(wire.OfertarViaje{DireccionComensalO: dinerAddr}))
	c.BroadcastStateDelta(wire.ActualizarRepartidores{
		Accion:           wire.DeltaInsert,
		Repartidor:       courier.Address,
		Posicion:         courier.Position,
		IDComensalActual: &dinerAddr,
		Status:           string(storage.CourierWaiting),
	})
	return true
}

func mustEncode(v any) string {
	line, err := wire.Encode(v)
	if err != nil {
		log.Printf("coordinator: encode %T: %v", v, err)
		return ""
	}
	return line
}
