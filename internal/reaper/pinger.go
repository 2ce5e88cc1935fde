package reaper

import (
	"log"
	"time"

	"github.com/axel-zielonka/tp2-delivery/internal/config"
)

// LeaderChecker reports this replica's current election belief and
// whether it is mid-election, so the pinger can skip probing while one is
// already underway.
type LeaderChecker interface {
	IsLeader() bool
	Leader() string
	InElection() bool
}

// ElectionStarter triggers a fresh election, used after total ping
// failure (spec.md §4.5).
type ElectionStarter interface {
	Start()
}

// Pinger periodically checks that the believed leader is still reachable.
type Pinger struct {
	checker  LeaderChecker
	election ElectionStarter
	ping     func(leaderAddr string) error
	stopCh   chan struct{}
}

// NewPinger builds a Pinger. ping performs one PingMessage round trip
// against leaderAddr, returning an error on timeout or any I/O failure; the
// replica package supplies the concrete dialer.
func NewPinger(checker LeaderChecker, election ElectionStarter, ping func(leaderAddr string) error) *Pinger {
	return &Pinger{checker: checker, election: election, ping: ping, stopCh: make(chan struct{})}
}

// Run blocks, probing every config.PingInterval until Stop is called.
func (p *Pinger) Run() {
	ticker := time.NewTicker(config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.pingOnce()
		case <-p.stopCh:
			return
		}
	}
}

// Stop ends the Run loop.
func (p *Pinger) Stop() {
	close(p.stopCh)
}

func (p *Pinger) pingOnce() {
	if p.checker.IsLeader() || p.checker.InElection() {
		return
	}
	leader := p.checker.Leader()
	if leader == "" {
		return
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		if err := p.ping(leader); err == nil {
			return
		} else {
			lastErr = err
		}
	}

	log.Printf("pinger: leader %s unreachable after %d attempts: %v", leader, config.MaxRetries, lastErr)
	p.election.Start()
}
