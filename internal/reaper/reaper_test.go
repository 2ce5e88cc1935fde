package reaper

import (
	"testing"
	"time"

	"github.com/axel-zielonka/tp2-delivery/internal/storage"
)

type recordingWriter struct {
	lines []string
}

func (w *recordingWriter) Send(line string) { w.lines = append(w.lines, line) }

type recordingBroadcaster struct {
	messages []any
}

func (b *recordingBroadcaster) BroadcastStateDelta(msg any) {
	b.messages = append(b.messages, msg)
}

func TestReapOnceNotifiesDinerAndBroadcasts(t *testing.T) {
	store := storage.New()
	dinerW := &recordingWriter{}
	store.InsertDiner(storage.Diner{Address: "d1", Writer: dinerW})
	store.InsertCourier(storage.Courier{
		Address:          "c1",
		Status:           storage.CourierWaiting,
		AssignedDiner:    "d1",
		LastStatusChange: time.Now().Add(-10 * time.Second),
	})

	b := &recordingBroadcaster{}
	r := New(store, b)
	r.reapOnce()

	if len(dinerW.lines) != 1 {
		t.Fatalf("expected diner to be notified once, got %d", len(dinerW.lines))
	}
	if len(b.messages) != 2 {
		t.Fatalf("expected two broadcast deltas (courier + diner removal), got %d", len(b.messages))
	}
	if _, ok := store.GetCourier("c1"); ok {
		t.Fatal("stalled courier should have been removed")
	}
}

func TestReapOnceLeavesFreshCouriersAlone(t *testing.T) {
	store := storage.New()
	store.InsertCourier(storage.Courier{
		Address:          "c1",
		Status:           storage.CourierWaiting,
		LastStatusChange: time.Now(),
	})

	b := &recordingBroadcaster{}
	r := New(store, b)
	r.reapOnce()

	if len(b.messages) != 0 {
		t.Fatal("a fresh waiting courier must not be reaped")
	}
}
