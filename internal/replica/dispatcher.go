package replica

import (
	"log"

	"github.com/axel-zielonka/tp2-delivery/internal/coordinator"
	"github.com/axel-zielonka/tp2-delivery/internal/election"
	"github.com/axel-zielonka/tp2-delivery/internal/hub"
	"github.com/axel-zielonka/tp2-delivery/internal/storage"
	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

// dispatcher implements hub.Dispatcher, routing each decoded message to
// storage, the coordinator, or the election actor per spec.md §4.4's
// "dispatch to the addressed component."
type dispatcher struct {
	store       *storage.Store
	coordinator *coordinator.Coordinator
	election    *election.Election
}

func newDispatcher(store *storage.Store, co *coordinator.Coordinator, e *election.Election) *dispatcher {
	return &dispatcher{store: store, coordinator: co, election: e}
}

func (d *dispatcher) Dispatch(s *hub.Session, kind string, msg any) {
	switch kind {
	case "WhoIsCoordinator":
		resp, known := d.election.HandleWhoIsCoordinator()
		if !known {
			s.Send(wire.ControlAck)
		} else {
			s.Send(encodeOrLog(resp))
		}

	case "Ack", "ACK":
		// Replies to our own outbound probes are consumed by the dedicated
		// short-lived connections in replica/transport.go, not by the hub's
		// long-lived sessions; an Ack arriving here has no addressee.

	case "MensajeIdentidad":
		m := msg.(*wire.MensajeIdentidad)
		if m.SoyRepartidor {
			d.store.InsertCourier(storage.Courier{
				Address:  s.RemoteAddr,
				Position: storage.Point(m.Ubicacion),
				Status:   storage.CourierActive,
				Writer:   s,
			})
		} else {
			d.store.InsertRestaurant(storage.Restaurant{
				Address:  s.RemoteAddr,
				Position: storage.Point(m.Ubicacion),
				Status:   storage.RestaurantActive,
				Writer:   s,
			})
		}

	case "Posicion":
		m := msg.(*wire.Posicion)
		if c, ok := d.store.GetCourier(s.RemoteAddr); ok {
			c.Position = storage.Point(m.Posicion)
			d.store.InsertCourier(c)
		}

	case "BuscandoTrabajo":
		m := msg.(*wire.BuscandoTrabajo)
		c, ok := d.store.GetCourier(s.RemoteAddr)
		if !ok {
			c = storage.Courier{Address: s.RemoteAddr, Writer: s}
		}
		c.Position = storage.Point(m.Posicion)
		if m.BuscandoTrabajo {
			c.Status = storage.CourierActive
		}
		d.store.InsertCourier(c)

	case "SolicitarPedido":
		m := msg.(*wire.SolicitarPedido)
		d.coordinator.HandleOrderRequest(s.RemoteAddr, m.Comida, storage.Point(m.Destino), s)

	case "SolicitarRepartidor":
		m := msg.(*wire.SolicitarRepartidor)
		d.coordinator.HandleRestaurantResponse(m.DireccionComensal, m.PedidoAceptado)

	case "RespuestaOfertaViaje":
		m := msg.(*wire.RespuestaOfertaViaje)
		d.coordinator.HandleCourierResponse(s.RemoteAddr, m.DireccionComensalR, m.EstaAceptado)

	case "FinalizarViaje":
		m := msg.(*wire.FinalizarViaje)
		d.coordinator.FinishDelivery(m.DireccionComensalF, m.DireccionConductorF)

	case "MensajeEleccion":
		m := msg.(*wire.MensajeEleccion)
		d.election.HandleElectionMessage(*m)
		s.Send(wire.ControlAck)

	case "MensajeCoordinador":
		m := msg.(*wire.MensajeCoordinador)
		d.election.HandleCoordinatorMessage(*m)
		s.Send(wire.ControlAck)

	case "MensajePing":
		s.Send(wire.ControlAck)

	case "ActualizarComensales":
		applyDinerDelta(d.store, msg.(*wire.ActualizarComensales))

	case "ActualizarRepartidores":
		applyCourierDelta(d.store, msg.(*wire.ActualizarRepartidores))

	case "ActualizarRestaurantes":
		applyRestaurantDelta(d.store, msg.(*wire.ActualizarRestaurantes))

	case "HandlePedido":
		m := msg.(*wire.HandlePedido)
		if d.election.IsLeader() {
			d.coordinator.HandleOrder(m.IDComensalHT)
		}

	default:
		log.Printf("replica: no route for message kind %q", kind)
	}
}

func applyDinerDelta(store *storage.Store, m *wire.ActualizarComensales) {
	switch m.Accion {
	case wire.DeltaInsert:
		store.InsertDiner(storage.Diner{Address: m.Comensal, Origin: storage.Point(m.Origen), Destination: storage.Point(m.Destino)})
	case wire.DeltaRemove:
		store.RemoveDiner(m.Comensal)
	}
}

func applyCourierDelta(store *storage.Store, m *wire.ActualizarRepartidores) {
	switch m.Accion {
	case wire.DeltaRemove:
		store.RemoveCourier(m.Repartidor)
	default:
		diner := ""
		if m.IDComensalActual != nil {
			diner = *m.IDComensalActual
		}
		c, ok := store.GetCourier(m.Repartidor)
		if !ok {
			c = storage.Courier{Address: m.Repartidor}
		}
		c.Position = storage.Point(m.Posicion)
		c.Status = storage.CourierStatus(m.Status)
		c.AssignedDiner = diner
		store.InsertCourier(c)
	}
}

func applyRestaurantDelta(store *storage.Store, m *wire.ActualizarRestaurantes) {
	switch m.Accion {
	case wire.DeltaRemove:
		store.RemoveRestaurant(m.Restaurante)
	default:
		r, ok := store.GetRestaurant(m.Restaurante)
		if !ok {
			r = storage.Restaurant{Address: m.Restaurante}
		}
		r.Position = storage.Point(m.Posicion)
		r.Status = storage.RestaurantStatus(m.Status)
		store.InsertRestaurant(r)
	}
}

func encodeOrLog(v any) string {
	line, err := wire.Encode(v)
	if err != nil {
		log.Printf("replica: encode %T: %v", v, err)
		return ""
	}
	return line
}
