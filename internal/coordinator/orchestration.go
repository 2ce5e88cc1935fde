package coordinator

import (
	"log"

	"github.com/axel-zielonka/tp2-delivery/internal/conn"
	"github.com/axel-zielonka/tp2-delivery/internal/storage"
	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

// MaxCourierRetryAttempts caps the selection loop in
// retryHandleOrderExcluding. Every iteration of that loop returns, so a
// single rejection leads to at most one new nearest-courier selection.
const MaxCourierRetryAttempts = 3

// HandleOrderRequest drives step 1-3 of the order-orchestration
// sub-protocol (spec.md §4.2): record the diner, broadcast its insertion,
// authorize payment, then hand off to the nearest restaurant.
func (c *Coordinator) HandleOrderRequest(dinerAddr string, food string, destination storage.Point, dinerWriter conn.Writer) {
	if !c.leader.IsLeader() {
		return
	}

	origin := randomOrigin()
	c.store.InsertDiner(storage.Diner{
		Address:     dinerAddr,
		Origin:      origin,
		Destination: destination,
		Writer:      dinerWriter,
	})
	c.BroadcastStateDelta(wire.ActualizarComensales{
		Accion:   wire.DeltaInsert,
		Comensal: dinerAddr,
		Origen:   origin,
		Destino:  destination,
	})

	c.mu.Lock()
	c.pending[dinerAddr] = &pendingOrder{
		dinerAddr:     dinerAddr,
		food:          food,
		destination:   destination,
		phase:         PhaseAwaitingAuth,
		triedCouriers: make(map[string]bool),
	}
	c.mu.Unlock()

	authorized, err := c.gateway.Authorize(dinerAddr, DefaultOrderAmount)
	if err != nil || !authorized {
		c.rejectOrder(dinerAddr, wire.ReasonInsufficientFunds)
		return
	}

	c.offerNearestRestaurant(dinerAddr)
}

// offerNearestRestaurant selects the nearest Active restaurant to the
// diner's origin and sends it RecibirPedido. If none is available, the
// order is rejected for lack of resources.
func (c *Coordinator) offerNearestRestaurant(dinerAddr string) {
	diner, ok := c.store.GetDiner(dinerAddr)
	if !ok {
		return
	}
	restaurant, ok := c.store.GetNearestActiveRestaurant(diner.Origin)
	if !ok {
		c.rejectOrder(dinerAddr, wire.ReasonNoResources)
		return
	}

	c.mu.Lock()
	if p, ok := c.pending[dinerAddr]; ok {
		p.phase = PhaseAwaitingRestaurant
		p.restaurantAddr = restaurant.Address
	}
	c.mu.Unlock()

	c.mu.Lock()
	food := ""
	if p, ok := c.pending[dinerAddr]; ok {
		food = p.food
	}
	c.mu.Unlock()

	restaurant.Writer.Send(mustEncode(wire.RecibirPedido{
		DireccionComensalO: dinerAddr,
		Comida:             food,
		UbicacionComensal:  diner.Origin,
	}))
}

// HandleRestaurantResponse processes a restaurant's RespuestaOfertaViaje
// for the named diner (step 2 → 3 of the sub-protocol).
func (c *Coordinator) HandleRestaurantResponse(dinerAddr string, accepted bool) {
	c.mu.Lock()
	p, ok := c.pending[dinerAddr]
	if ok {
		p.phase = PhaseAwaitingCourier
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	if !accepted {
		c.rejectOrder(dinerAddr, wire.ReasonRestaurantRejected)
		return
	}

	if !c.HandleOrder(dinerAddr) {
		c.rejectOrder(dinerAddr, wire.ReasonNoResources)
	}
}

// HandleCourierResponse processes a courier's RespuestaOfertaViaje. On
// reject, the courier returns to Active and retryHandleOrderExcluding makes
// one more nearest-courier selection for the same diner, rejecting the
// order if that selection is a courier already tried; on
// accept, both parties receive IniciarViajeDelivery and a state delta is
// broadcast (step 4).
func (c *Coordinator) HandleCourierResponse(courierAddr, dinerAddr string, accepted bool) {
	c.mu.Lock()
	p, ok := c.pending[dinerAddr]
	if ok {
		p.triedCouriers[courierAddr] = true
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	if !accepted {
		c.store.SetCourierStatus(courierAddr, storage.CourierActive, "")
		c.BroadcastStateDelta(wire.ActualizarRepartidores{
			Accion:     wire.DeltaInsert,
			Repartidor: courierAddr,
			Status:     string(storage.CourierActive),
		})
		if !c.retryHandleOrderExcluding(dinerAddr) {
			c.rejectOrder(dinerAddr, wire.ReasonNoResources)
		}
		return
	}

	c.store.SetCourierStatus(courierAddr, storage.CourierOnTrip, dinerAddr)
	c.mu.Lock()
	if p, ok := c.pending[dinerAddr]; ok {
		p.phase = PhaseOnTrip
		p.courierAddr = courierAddr
	}
	c.mu.Unlock()

	diner, dok := c.store.GetDiner(dinerAddr)
	courier, cok := c.store.GetCourier(courierAddr)
	if !dok || !cok {
		return
	}

	start := wire.IniciarViajeDelivery{
		DireccionComensalI:  dinerAddr,
		DireccionConductorI: courierAddr,
		OrigenI:             diner.Origin,
		DestinoI:            diner.Destination,
	}
	diner.Writer.Send(mustEncode(start))
	courier.Writer.Send(mustEncode(start))

	c.BroadcastStateDelta(wire.ActualizarRepartidores{
		Accion:           wire.DeltaInsert,
		Repartidor:       courierAddr,
		Posicion:         courier.Position,
		IDComensalActual: &dinerAddr,
		Status:           string(storage.CourierOnTrip),
	})
}

// retryHandleOrderExcluding re-runs nearest-courier selection for dinerAddr
// once. If the nearest Active courier has already been tried for this
// order it reports false; it does not go on to the next-nearest untried
// courier, so other Active couriers are not offered the order.
func (c *Coordinator) retryHandleOrderExcluding(dinerAddr string) bool {
	for attempt := 0; attempt < MaxCourierRetryAttempts; attempt++ {
		courier, ok := c.store.GetNearestActiveCourier()
		if !ok {
			return false
		}
		c.mu.Lock()
		alreadyTried := c.pending[dinerAddr] != nil && c.pending[dinerAddr].triedCouriers[courier.Address]
		c.mu.Unlock()
		if alreadyTried {
			// No way to exclude a specific candidate from the underlying
			// scan; stop retrying rather than loop forever on the same
			// untried-but-always-selected courier.
			return false
		}
		return c.HandleOrder(dinerAddr)
	}
	return false
}

// FinishDelivery processes a courier-reported FinalizarViaje (step 5):
// capture payment, ACK both parties, and remove the diner while returning
// the courier to Active.
func (c *Coordinator) FinishDelivery(dinerAddr, courierAddr string) {
	if err := c.gateway.Capture(dinerAddr, DefaultOrderAmount); err != nil {
		log.Printf("coordinator: payment capture failed for %s: %v", dinerAddr, err)
	}

	diner, dok := c.store.GetDiner(dinerAddr)
	courier, cok := c.store.GetCourier(courierAddr)

	if dok {
		diner.Writer.Send(wire.ControlACK)
	}
	if cok {
		courier.Writer.Send(wire.ControlACK)
	}

	c.store.RemoveDiner(dinerAddr)
	c.store.SetCourierStatus(courierAddr, storage.CourierActive, "")

	c.mu.Lock()
	delete(c.pending, dinerAddr)
	c.mu.Unlock()

	c.BroadcastStateDelta(wire.ActualizarComensales{Accion: wire.DeltaRemove, Comensal: dinerAddr})
	c.BroadcastStateDelta(wire.ActualizarRepartidores{
		Accion:     wire.DeltaInsert,
		Repartidor: courierAddr,
		Status:     string(storage.CourierActive),
	})
}

// rejectOrder sends RechazarViaje to the diner and tears down any pending
// order state.
func (c *Coordinator) rejectOrder(dinerAddr, reason string) {
	diner, ok := c.store.GetDiner(dinerAddr)
	if ok {
		diner.Writer.Send(mustEncode(wire.RechazarViaje{Respuesta: reason}))
	}
	c.store.RemoveDiner(dinerAddr)
	c.BroadcastStateDelta(wire.ActualizarComensales{Accion: wire.DeltaRemove, Comensal: dinerAddr})

	c.mu.Lock()
	delete(c.pending, dinerAddr)
	c.mu.Unlock()
}
