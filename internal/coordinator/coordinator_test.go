package coordinator

import (
	"testing"

	"github.com/axel-zielonka/tp2-delivery/internal/storage"
	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

type recordingWriter struct {
	lines []string
}

func (w *recordingWriter) Send(line string) { w.lines = append(w.lines, line) }

type alwaysLeader struct{}

func (alwaysLeader) IsLeader() bool { return true }

type neverLeader struct{}

func (neverLeader) IsLeader() bool { return false }

type fakeGateway struct {
	authorize bool
	authErr   error
	captureErr error
}

func (g *fakeGateway) Authorize(dinerAddr string, amount float64) (bool, error) {
	return g.authorize, g.authErr
}

func (g *fakeGateway) Capture(dinerAddr string, amount float64) error {
	return g.captureErr
}

func TestHandleOrderOffersNearestCourierAndMarksWaiting(t *testing.T) {
	store := storage.New()
	cw := &recordingWriter{}
	store.InsertCourier(storage.Courier{Address: "courier-1", Status: storage.CourierActive, Writer: cw})
	store.InsertDiner(storage.Diner{Address: "diner-1"})

	c := New("leader", store, alwaysLeader{}, &fakeGateway{})
	if !c.HandleOrder("diner-1") {
		t.Fatal("expected a courier to be found")
	}

	courier, _ := store.GetCourier("courier-1")
	if courier.Status != storage.CourierWaiting || courier.AssignedDiner != "diner-1" {
		t.Fatalf("courier not transitioned correctly: %+v", courier)
	}
	if len(cw.lines) != 1 {
		t.Fatalf("expected one offer sent, got %d", len(cw.lines))
	}
}

func TestHandleOrderRejectsWhenNoCourier(t *testing.T) {
	store := storage.New()
	c := New("leader", store, alwaysLeader{}, &fakeGateway{})
	if c.HandleOrder("diner-1") {
		t.Fatal("expected no courier to be found")
	}
}

func TestHandleOrderRequestRejectsOnAuthFailure(t *testing.T) {
	store := storage.New()
	dinerW := &recordingWriter{}
	c := New("leader", store, alwaysLeader{}, &fakeGateway{authorize: false})

	c.HandleOrderRequest("diner-1", "pizza", storage.Point{1, 1}, dinerW)

	if len(dinerW.lines) != 1 {
		t.Fatalf("expected one rejection message, got %d", len(dinerW.lines))
	}
	if !store.HasDinerFinished("diner-1") {
		t.Fatal("diner should be removed after rejection")
	}
}

func TestHandleOrderRequestNoopWhenNotLeader(t *testing.T) {
	store := storage.New()
	dinerW := &recordingWriter{}
	c := New("follower", store, neverLeader{}, &fakeGateway{authorize: true})

	c.HandleOrderRequest("diner-1", "pizza", storage.Point{1, 1}, dinerW)

	if len(dinerW.lines) != 0 {
		t.Fatal("a non-leader replica must not act on an order request")
	}
}

func TestFullHappyPathThroughFinishDelivery(t *testing.T) {
	store := storage.New()
	dinerW := &recordingWriter{}
	restW := &recordingWriter{}
	courierW := &recordingWriter{}

	store.InsertRestaurant(storage.Restaurant{Address: "rest-1", Status: storage.RestaurantActive, Writer: restW})
	store.InsertCourier(storage.Courier{Address: "courier-1", Status: storage.CourierActive, Writer: courierW})

	c := New("leader", store, alwaysLeader{}, &fakeGateway{authorize: true})
	c.HandleOrderRequest("diner-1", "pizza", storage.Point{5, 5}, dinerW)

	if len(restW.lines) != 1 {
		t.Fatalf("expected restaurant to receive an offer, got %d", len(restW.lines))
	}

	c.HandleRestaurantResponse("diner-1", true)
	if len(courierW.lines) != 1 {
		t.Fatalf("expected courier to receive an offer, got %d", len(courierW.lines))
	}

	c.HandleCourierResponse("courier-1", "diner-1", true)
	courier, _ := store.GetCourier("courier-1")
	if courier.Status != storage.CourierOnTrip {
		t.Fatalf("courier status = %v, want on-trip", courier.Status)
	}
	if len(dinerW.lines) != 1 || len(courierW.lines) != 2 {
		t.Fatalf("expected both parties to receive the start signal: diner=%d courier=%d", len(dinerW.lines), len(courierW.lines))
	}

	c.FinishDelivery("diner-1", "courier-1")
	if !store.HasDinerFinished("diner-1") {
		t.Fatal("diner should be removed after finishing delivery")
	}
	courier, _ = store.GetCourier("courier-1")
	if courier.Status != storage.CourierActive {
		t.Fatalf("courier should return to active, got %v", courier.Status)
	}
	if dinerW.lines[len(dinerW.lines)-1] != wire.ControlACK || courierW.lines[len(courierW.lines)-1] != wire.ControlACK {
		t.Fatal("both parties should receive a final ACK")
	}
}

func TestCourierRejectReturnsToActiveAndRetries(t *testing.T) {
	store := storage.New()
	dinerW := &recordingWriter{}
	restW := &recordingWriter{}
	courierW := &recordingWriter{}

	store.InsertRestaurant(storage.Restaurant{Address: "rest-1", Status: storage.RestaurantActive, Writer: restW})
	store.InsertCourier(storage.Courier{Address: "courier-1", Status: storage.CourierActive, Writer: courierW})

	c := New("leader", store, alwaysLeader{}, &fakeGateway{authorize: true})
	c.HandleOrderRequest("diner-1", "pizza", storage.Point{5, 5}, dinerW)
	c.HandleRestaurantResponse("diner-1", true)

	c.HandleCourierResponse("courier-1", "diner-1", false)

	courier, _ := store.GetCourier("courier-1")
	if courier.Status != storage.CourierActive {
		t.Fatalf("rejecting courier should return to active, got %v", courier.Status)
	}
	if len(dinerW.lines) != 1 {
		t.Fatalf("with only one courier in the pool, the retry finds no untried courier and the diner gets one rejection: got %d diner messages", len(dinerW.lines))
	}
}
