// Package storage holds the in-memory soft state of a replica: diners,
// restaurants, and couriers, keyed by network address.
//
// Big idea (grounded on the teacher's store.Store, internal/store/store.go):
// the teacher guards a single map with sync.RWMutex so many readers can
// proceed concurrently while writes serialize. We keep that discipline for
// three maps instead of one, but drop the teacher's WAL/snapshot layer
// entirely — spec.md's Non-goals explicitly exclude persistent durable
// storage, so this state is reconstructible only from client traffic, never
// from disk.
//
// Ownership (spec.md §3): only the leader's Storage is authoritative for
// dispatch. A follower's copy, kept current by applying broadcast deltas,
// is a read-only projection — callers on a follower must never act on it.
package storage

import (
	"math"
	"sync"
	"time"

	"github.com/axel-zielonka/tp2-delivery/internal/conn"
)

// CourierStatus is one of the three states a courier cycles through.
type CourierStatus string

const (
	CourierActive  CourierStatus = "active"
	CourierWaiting CourierStatus = "waiting"
	CourierOnTrip  CourierStatus = "on_trip"
)

// RestaurantStatus mirrors courier status terminology for the nearest-active
// scan (spec.md §4.3).
type RestaurantStatus string

const (
	RestaurantActive   RestaurantStatus = "active"
	RestaurantInactive RestaurantStatus = "inactive"
)

// Point is a 2D coordinate on the toy Euclidean map.
type Point [2]float64

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	dx := p[0] - q[0]
	dy := p[1] - q[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// Diner is created on order acceptance and removed on completion or
// rejection (spec.md invariant 3).
type Diner struct {
	Address     string
	Origin      Point // randomized pickup point — see SPEC_FULL.md §7 item 5
	Destination Point
	Writer      conn.Writer
}

// Restaurant survives across orders once announced.
type Restaurant struct {
	Address  string
	Position Point
	Writer   conn.Writer
	Status   RestaurantStatus
	LastSeen time.Time
}

// Courier is created on its first position announcement and removed on
// reaping or disconnect.
type Courier struct {
	Address        string
	Position       Point
	AssignedDiner  string // empty unless Status == CourierWaiting/OnTrip
	Writer         conn.Writer
	Status         CourierStatus
	LastStatusChange time.Time
}

// Store is the leader-owned (or follower-projected) soft state for one
// replica. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	diners      map[string]*Diner
	restaurants map[string]*Restaurant
	couriers    map[string]*Courier
	clock       func() time.Time // overridable in tests; monotonic in prod
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		diners:      make(map[string]*Diner),
		restaurants: make(map[string]*Restaurant),
		couriers:    make(map[string]*Courier),
		clock:       time.Now,
	}
}

// ─── Diners ─────────────────────────────────────────────────────────────────

// InsertDiner adds or overwrites a diner entry.
func (s *Store) InsertDiner(d Diner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := d
	s.diners[d.Address] = &cp
}

// RemoveDiner deletes a diner; removing an absent diner is a no-op.
func (s *Store) RemoveDiner(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.diners, addr)
}

// GetDiner returns a copy of the diner entry, if present.
func (s *Store) GetDiner(addr string) (Diner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.diners[addr]
	if !ok {
		return Diner{}, false
	}
	return *d, true
}

// HasDinerFinished reports whether addr is absent from the diner map —
// true means the order has reached a terminal state.
func (s *Store) HasDinerFinished(addr string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.diners[addr]
	return !ok
}

// ─── Restaurants ────────────────────────────────────────────────────────────

// InsertRestaurant adds or updates a restaurant entry.
func (s *Store) InsertRestaurant(r Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := r
	s.restaurants[r.Address] = &cp
}

// RemoveRestaurant deletes a restaurant entry.
func (s *Store) RemoveRestaurant(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.restaurants, addr)
}

// GetRestaurant returns a copy of a restaurant entry, if present.
func (s *Store) GetRestaurant(addr string) (Restaurant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.restaurants[addr]
	if !ok {
		return Restaurant{}, false
	}
	return *r, true
}

// GetNearestActiveRestaurant scans for the Active restaurant closest to pos.
//
// Observed oddity preserved verbatim (spec.md §9 open question 2, grounded
// on handlers_almacenamiento.rs's QuieroPedidoSoyComensal handler): the loop
// updates menor_distancia correctly but assigns the *current* candidate to
// the result unconditionally, not only when it is the closest seen so far.
// The practical effect is that the last Active restaurant visited in map
// iteration order wins, not necessarily the nearest — do not "fix" this.
func (s *Store) GetNearestActiveRestaurant(pos Point) (Restaurant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *Restaurant
	minDist := math.Inf(1)
	for _, r := range s.restaurants {
		if r.Status != RestaurantActive {
			continue
		}
		d := r.Position.Distance(pos)
		if d < minDist {
			minDist = d
		}
		best = r
	}
	if best == nil {
		return Restaurant{}, false
	}
	return *best, true
}

// ─── Couriers ───────────────────────────────────────────────────────────────

// InsertCourier adds or updates a courier entry.
func (s *Store) InsertCourier(c Courier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c
	s.couriers[c.Address] = &cp
}

// RemoveCourier deletes a courier entry.
func (s *Store) RemoveCourier(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.couriers, addr)
}

// GetCourier returns a copy of a courier entry, if present.
func (s *Store) GetCourier(addr string) (Courier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.couriers[addr]
	if !ok {
		return Courier{}, false
	}
	return *c, true
}

// SetCourierStatus transitions a courier's status and assignment, bumping
// its last-status-change timestamp. Invariant 2: Waiting couriers carry a
// non-empty diner; Active couriers carry none.
func (s *Store) SetCourierStatus(addr string, status CourierStatus, diner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.couriers[addr]
	if !ok {
		return
	}
	c.Status = status
	c.AssignedDiner = diner
	c.LastStatusChange = s.now()
}

// GetNearestActiveCourier scans for the Active courier closest to the
// origin.
//
// Observed oddity preserved verbatim (spec.md §9 open question 1, grounded
// on handlers_almacenamiento.rs's ObtenerRepartidorCercano handler): the
// distance minimized is to the fixed point (0,0), not to the diner or
// restaurant position passed by the caller. Do not "fix" this — callers
// that want a position-aware pick must be asking the wrong question, and
// the observed system does not support one.
func (s *Store) GetNearestActiveCourier() (Courier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var origin Point
	var best *Courier
	minDist := math.Inf(1)
	for _, c := range s.couriers {
		if c.Status != CourierActive {
			continue
		}
		d := c.Position.Distance(origin)
		if d < minDist {
			minDist = d
			best = c
		}
	}
	if best == nil {
		return Courier{}, false
	}
	return *best, true
}

// ReapedCourier is one stalled-courier/diner pair removed by ReapStalledCouriers.
type ReapedCourier struct {
	CourierAddr string
	DinerAddr   string
	DinerWriter conn.Writer
}

// ReapStalledCouriers removes every courier that has sat Waiting longer
// than CourierStall, along with its assigned diner, and reports what was
// removed so the caller can notify that diner and broadcast the deltas.
func (s *Store) ReapStalledCouriers(stallAfter time.Duration) []ReapedCourier {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reaped []ReapedCourier
	now := s.now()
	for addr, c := range s.couriers {
		if c.Status != CourierWaiting {
			continue
		}
		if now.Sub(c.LastStatusChange) <= stallAfter {
			continue
		}

		var writer conn.Writer
		if d, ok := s.diners[c.AssignedDiner]; ok {
			writer = d.Writer
		}
		reaped = append(reaped, ReapedCourier{
			CourierAddr: addr,
			DinerAddr:   c.AssignedDiner,
			DinerWriter: writer,
		})
	}

	for _, r := range reaped {
		delete(s.couriers, r.CourierAddr)
		delete(s.diners, r.DinerAddr)
	}
	return reaped
}

// ResourcesAvailable reports whether at least one courier and one
// restaurant are registered (spec.md §4.3), regardless of status.
func (s *Store) ResourcesAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.couriers) > 0 && len(s.restaurants) > 0
}

// Snapshot returns a point-in-time copy of every entity, for the admin API
// debug dump — never used for dispatch decisions.
func (s *Store) Snapshot() (diners []Diner, restaurants []Restaurant, couriers []Courier) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.diners {
		diners = append(diners, *d)
	}
	for _, r := range s.restaurants {
		restaurants = append(restaurants, *r)
	}
	for _, c := range s.couriers {
		couriers = append(couriers, *c)
	}
	return diners, restaurants, couriers
}

func (s *Store) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}
