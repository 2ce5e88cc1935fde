// Package config centralizes the tuning constants used across every
// component of a replica: ring ports, timeouts, and retry counts.
//
// The teacher repo keeps constants as a flat set of package-level values
// (see its cmd/server flags for N/W/R) rather than a YAML/env loader, and
// we follow the same style here — there is no config library in the
// dependency pack worth importing for a half-dozen durations.
package config

import "time"

const (
	// MinPeerPort and MaxPeerPort bound the ring: ports 8080-8084, wrapping
	// from the highest back to the lowest (spec invariant 4).
	MinPeerPort = 8080
	MaxPeerPort = 8084

	// GatewayAddress is the well-known address of the external payment
	// gateway (out of scope beyond its wire contract).
	GatewayAddress = "127.0.0.1:8085"

	// PingInterval is how often a follower pings the believed leader.
	PingInterval = 2 * time.Second
	// MaxRetries bounds ring-hop and ping retry attempts.
	MaxRetries = 3
	// MaxPingGap is the tolerated leader-silence gap. No component reads
	// it; the pinger declares the leader unreachable after MaxRetries
	// failed pings instead.
	MaxPingGap = 5 * time.Second
	// ReaperPeriod is how often the stalled-courier scan runs.
	ReaperPeriod = 5 * time.Second
	// CourierStall is how long a courier may sit Waiting before reaping.
	CourierStall = 3 * time.Second
	// GatewayTimeout bounds a single payment-gateway round trip.
	GatewayTimeout = 5 * time.Second
	// ClientACKTimeout is the client-side ACK budget after FinishDelivery.
	// No component reads it: the coordinator sends ACK and does not wait
	// for anything back.
	ClientACKTimeout = 2 * time.Second
	// RingHopTimeout bounds a single election-ring hop's ack wait.
	RingHopTimeout = 3 * time.Second

	// AcceptProbabilityCourier/Restaurant and PaymentRejectRate parameterize
	// the external actors' simulated decisions; nothing in this repository
	// rolls these dice.
	AcceptProbabilityCourier    = 0.8
	AcceptProbabilityRestaurant = 0.9
	PaymentRejectRate           = 0.2

	// MapExtent bounds the toy 2D coordinate space used for Euclidean
	// distance math.
	MapExtent = 50.0

	// RingHopBackoffBase is the initial delay between election-ring hop
	// retries, doubled each attempt — grounded on the teacher's
	// Replicator.sendReplicateRequest exponential backoff.
	RingHopBackoffBase = 100 * time.Millisecond
)
