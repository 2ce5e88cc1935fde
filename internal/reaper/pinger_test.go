package reaper

import (
	"errors"
	"testing"
)

type fakeChecker struct {
	leader     string
	isLeader   bool
	inElection bool
}

func (f fakeChecker) IsLeader() bool   { return f.isLeader }
func (f fakeChecker) Leader() string   { return f.leader }
func (f fakeChecker) InElection() bool { return f.inElection }

type countingElection struct {
	started int
}

func (e *countingElection) Start() { e.started++ }

func TestPingerSkipsWhenSelfIsLeader(t *testing.T) {
	e := &countingElection{}
	calls := 0
	p := NewPinger(fakeChecker{isLeader: true}, e, func(addr string) error {
		calls++
		return nil
	})
	p.pingOnce()
	if calls != 0 || e.started != 0 {
		t.Fatal("a leader replica should not ping itself")
	}
}

func TestPingerTriggersElectionAfterExhaustingRetries(t *testing.T) {
	e := &countingElection{}
	calls := 0
	p := NewPinger(fakeChecker{leader: "127.0.0.1:8080"}, e, func(addr string) error {
		calls++
		return errors.New("unreachable")
	})
	p.pingOnce()
	if calls != 3 {
		t.Fatalf("expected 3 ping attempts, got %d", calls)
	}
	if e.started != 1 {
		t.Fatalf("expected exactly one election start, got %d", e.started)
	}
}

func TestPingerSkipsWhenElectionInProgress(t *testing.T) {
	e := &countingElection{}
	calls := 0
	p := NewPinger(fakeChecker{leader: "127.0.0.1:8080", inElection: true}, e, func(addr string) error {
		calls++
		return nil
	})
	p.pingOnce()
	if calls != 0 || e.started != 0 {
		t.Fatal("a replica mid-election should not probe the old leader or start another election")
	}
}

func TestPingerSucceedsOnFirstAttempt(t *testing.T) {
	e := &countingElection{}
	calls := 0
	p := NewPinger(fakeChecker{leader: "127.0.0.1:8080"}, e, func(addr string) error {
		calls++
		return nil
	})
	p.pingOnce()
	if calls != 1 || e.started != 0 {
		t.Fatalf("expected one successful attempt and no election, got calls=%d started=%d", calls, e.started)
	}
}
