package election

import (
	"errors"
	"sync"
	"testing"

	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

type fakeTransport struct {
	mu         sync.Mutex
	elections  []wire.MensajeEleccion
	coords     []wire.MensajeCoordinador
	failAddrs  map[string]bool
}

func (f *fakeTransport) SendElection(addr string, msg wire.MensajeEleccion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAddrs[addr] {
		return errors.New("unreachable")
	}
	f.elections = append(f.elections, msg)
	return nil
}

func (f *fakeTransport) SendCoordinator(addr string, msg wire.MensajeCoordinador) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAddrs[addr] {
		return errors.New("unreachable")
	}
	f.coords = append(f.coords, msg)
	return nil
}

func (f *fakeTransport) SendWhoIsCoordinator(addr string) (wire.QuienEsCoordinador, error) {
	return wire.QuienEsCoordinador{}, nil
}

func TestLowestPortWinsTieBreak(t *testing.T) {
	got := lowestPort([]string{"127.0.0.1:8083", "127.0.0.1:8080", "127.0.0.1:8084"})
	if got != "127.0.0.1:8080" {
		t.Fatalf("got %q, want 127.0.0.1:8080", got)
	}
}

func TestSuccessorWrapsAround(t *testing.T) {
	tr := &fakeTransport{failAddrs: map[string]bool{}}
	e := New("127.0.0.1:8084", 8084, []int{8080, 8081, 8082, 8083, 8084}, tr, nil)
	if got := e.successor(8084); got != 8080 {
		t.Fatalf("successor(8084) = %d, want 8080 (wraparound)", got)
	}
	if got := e.successor(8081); got != 8082 {
		t.Fatalf("successor(8081) = %d, want 8082", got)
	}
}

func TestHandleElectionMessageCirclesBackAndAnnouncesLowestPort(t *testing.T) {
	tr := &fakeTransport{failAddrs: map[string]bool{}}
	var becameLeader bool
	var announcedLeader string
	e := New("127.0.0.1:8082", 8082, []int{8080, 8081, 8082}, tr, func(leader string, isLeader bool) {
		announcedLeader = leader
		becameLeader = isLeader
	})

	// The message has already visited 8080 and 8082 itself started it, but
	// here we simulate it circling back to 8082 carrying all three.
	e.HandleElectionMessage(wire.MensajeEleccion{
		Candidatos: []string{"127.0.0.1:8082", "127.0.0.1:8080", "127.0.0.1:8081"},
	})

	if announcedLeader != "127.0.0.1:8080" {
		t.Fatalf("announced leader = %q, want 127.0.0.1:8080", announcedLeader)
	}
	if becameLeader {
		t.Fatal("8082 should not believe itself leader when 8080 has the lowest port")
	}
	if e.State() != StateFollower {
		t.Fatalf("state = %v, want follower", e.State())
	}
}

func TestDeclareSelfLeaderWhenRingEmptyOfCandidates(t *testing.T) {
	tr := &fakeTransport{failAddrs: map[string]bool{}}
	var becameLeader bool
	e := New("127.0.0.1:8080", 8080, []int{8080}, tr, func(leader string, isLeader bool) {
		becameLeader = isLeader
	})

	e.HandleElectionMessage(wire.MensajeEleccion{Candidatos: []string{"127.0.0.1:8080"}})

	if !becameLeader {
		t.Fatal("sole ring member should become leader")
	}
	if e.State() != StateLeader {
		t.Fatalf("state = %v, want leader", e.State())
	}
}

func TestHandleWhoIsCoordinatorReturnsUnknownWithoutSelfDeclaring(t *testing.T) {
	tr := &fakeTransport{failAddrs: map[string]bool{}}
	e := New("127.0.0.1:8081", 8081, []int{8080, 8081}, tr, nil)

	resp, known := e.HandleWhoIsCoordinator()
	if known {
		t.Fatalf("known = true, resp = %+v; want unknown (Ack) when no leader is believed", resp)
	}
	if e.State() != StateFollower {
		t.Fatalf("state = %v, want unchanged follower state", e.State())
	}
	if e.Leader() != "" {
		t.Fatalf("leader = %q, want still unknown", e.Leader())
	}
}

func TestHandleWhoIsCoordinatorReturnsKnownLeader(t *testing.T) {
	tr := &fakeTransport{failAddrs: map[string]bool{}}
	e := New("127.0.0.1:8081", 8081, []int{8080, 8081}, tr, nil)
	e.HandleCoordinatorMessage(wire.MensajeCoordinador{Coordinador: "127.0.0.1:8080"})

	resp, known := e.HandleWhoIsCoordinator()
	if !known {
		t.Fatal("known = false, want true once a coordinator message has been adopted")
	}
	if resp.DireccionCoordinador != "127.0.0.1:8080" {
		t.Fatalf("got %q, want 127.0.0.1:8080", resp.DireccionCoordinador)
	}
}

func TestForwardSkipsDeadHopsAndReachesLiveOne(t *testing.T) {
	tr := &fakeTransport{failAddrs: map[string]bool{"127.0.0.1:8081": true}}
	e := New("127.0.0.1:8080", 8080, []int{8080, 8081, 8082}, tr, nil)

	e.forward(wire.MensajeEleccion{Candidatos: []string{"127.0.0.1:8080"}})

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.elections) != 1 {
		t.Fatalf("expected exactly one successful forward, got %d", len(tr.elections))
	}
}
