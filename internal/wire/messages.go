// Package wire defines the newline-delimited JSON protocol spoken between
// diners, couriers, restaurants, replicas, and the payment gateway.
//
// Field names intentionally mirror the original system's vocabulary
// (comida, destino, direccion_comensal, ...) so that every message in this
// package round-trips byte-identically through the wire — the same
// contract a diner, courier, or restaurant process implements independently
// of this repository's language.
package wire

// Control strings are sent bare, without JSON framing, on the same
// newline-delimited stream. They are checked for before attempting a JSON
// decode (see Decode).
const (
	ControlWhoIsCoordinator = "WhoIsCoordinator"
	ControlAck              = "Ack"
	ControlACK              = "ACK"
)

// ─── Client → server ───────────────────────────────────────────────────────

// QuienEsCoordinador answers WhoIsCoordinator with the believed leader.
type QuienEsCoordinador struct {
	DireccionCoordinador string `json:"direccion_coordinador"`
}

// MensajeIdentidad is how a restaurant or courier announces itself and its
// position on first contact.
type MensajeIdentidad struct {
	Ubicacion    [2]float64 `json:"ubicacion"`
	SoyRepartidor bool      `json:"soy_repartidor"`
}

// Posicion is a courier position update.
type Posicion struct {
	Posicion [2]float64 `json:"posicion"`
}

// BuscandoTrabajo lets a courier explicitly flag whether it is currently
// looking for work, distinct from a bare position update. Restored from the
// original system's BuscandoTrabajoRepartidor (see SPEC_FULL.md §6).
type BuscandoTrabajo struct {
	BuscandoTrabajo bool       `json:"buscando_trabajo"`
	Posicion        [2]float64 `json:"posicion"`
}

// SolicitarPedido is a diner placing an order.
type SolicitarPedido struct {
	Comida  string     `json:"comida"`
	Destino [2]float64 `json:"destino"`
}

// SolicitarRepartidor is a restaurant forwarding its accept/reject decision
// plus the delivery request details.
type SolicitarRepartidor struct {
	Comida           string     `json:"comida"`
	Origen           [2]float64 `json:"origen"`
	Destino          [2]float64 `json:"destino"`
	PedidoAceptado   bool       `json:"pedido_aceptado"`
	DireccionComensal string    `json:"direccion_comensal"`
}

// FinalizarViaje is sent by the courier (or resent by the diner on
// reconnect) reporting trip completion.
type FinalizarViaje struct {
	DireccionComensalF  string     `json:"direccion_comensal_f"`
	DireccionConductorF string     `json:"direccion_conductor_f"`
	PosDestino          [2]float64 `json:"pos_destino"`
}

// RespuestaOfertaViaje is the courier's or restaurant's accept/reject
// answer to an offer.
type RespuestaOfertaViaje struct {
	DireccionComensalR string `json:"direccion_comensal_r"`
	EstaAceptado       bool   `json:"esta_aceptado"`
}

// ─── Server → client ────────────────────────────────────────────────────────

// OfertarViaje offers a delivery to a courier.
type OfertarViaje struct {
	DireccionComensalO string `json:"direccion_comensal_o"`
}

// RecibirPedido offers an order to a restaurant.
type RecibirPedido struct {
	DireccionComensalO string     `json:"direccion_comensal_o"`
	Comida             string     `json:"comida"`
	UbicacionComensal  [2]float64 `json:"ubicacion_comensal"`
}

// IniciarViajeDelivery is the start signal sent to both diner and courier.
type IniciarViajeDelivery struct {
	DireccionComensalI  string     `json:"direccion_comensal_i"`
	DireccionConductorI string     `json:"direccion_conductor_i"`
	OrigenI             [2]float64 `json:"origen_i"`
	DestinoI            [2]float64 `json:"destino_i"`
}

// RechazarViaje carries a rejection reason to the diner.
type RechazarViaje struct {
	Respuesta string `json:"respuesta"`
}

// Standard rejection reasons, verbatim from the original system so that
// clients matching on the literal string keep working.
const (
	ReasonCourierDisconnected = "El repartidor esta desconectado, intente nuevamente"
	ReasonInsufficientFunds   = "Viaje rechazado por saldo insuficiente"
	ReasonRestaurantRejected  = "Viaje rechazado por restaurante"
	ReasonNoResources         = "No hay recursos disponibles para procesar el pedido"
)

// ─── Server ↔ peer ──────────────────────────────────────────────────────────

// MensajeEleccion circulates around the ring collecting candidates.
type MensajeEleccion struct {
	Candidatos []string `json:"candidatos"`
}

// MensajeCoordinador announces the elected leader.
type MensajeCoordinador struct {
	Coordinador string `json:"coordinador"`
}

// MensajePing is a liveness probe between replicas.
type MensajePing struct {
	IDEnviador string `json:"id_enviador"`
}

// DeltaAction is the verb carried by a state-delta broadcast.
type DeltaAction string

const (
	DeltaInsert DeltaAction = "insert"
	DeltaRemove DeltaAction = "remove"
)

// ActualizarComensales replicates a diner insert/remove to followers.
type ActualizarComensales struct {
	Accion   DeltaAction `json:"accion"`
	Comensal string      `json:"comensal"`
	Origen   [2]float64  `json:"origen"`
	Destino  [2]float64  `json:"destino"`
}

// ActualizarRepartidores replicates a courier insert/remove/update.
type ActualizarRepartidores struct {
	Accion            DeltaAction `json:"accion"`
	Repartidor        string      `json:"repartidor"`
	Posicion          [2]float64  `json:"posicion"`
	IDComensalActual  *string     `json:"id_comensal_actual"`
	Status            string      `json:"status"`
}

// ActualizarRestaurantes replicates a restaurant insert/remove/update.
type ActualizarRestaurantes struct {
	Accion      DeltaAction `json:"accion"`
	Restaurante string      `json:"restaurante"`
	Posicion    [2]float64  `json:"posicion"`
	Status      string      `json:"status"`
}

// HandlePedido hands an order off to the believed leader when the receiving
// replica is not (or is no longer) the coordinator.
type HandlePedido struct {
	IDComensalHT string `json:"id_comensal_ht"`
}
