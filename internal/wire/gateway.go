package wire

// Gateway messages implement the payment gateway's request/response
// contract (spec.md §6, supplemented from original_source's
// mensajes_gateway.rs — see SPEC_FULL.md §6). The gateway process itself is
// out of scope; only this contract and a client for it are implemented.

// GatewayRequestKind discriminates the RequerirPago tagged union.
type GatewayRequestKind string

const (
	GatewayValidarAutorizacionPago GatewayRequestKind = "ValidarAutorizacionPago"
	GatewayEfectivizarPago         GatewayRequestKind = "EfectivizarPago"
)

// RequerirPago is the tagged-union request the coordinator sends to the
// gateway, either to authorize a hold or to capture a payment.
type RequerirPago struct {
	Kind        GatewayRequestKind `json:"kind"`
	IDComensal  string             `json:"id_comensal"`
	Valor       float64            `json:"valor"`
}

// RespuestaAutorizacion answers a ValidarAutorizacionPago request.
type RespuestaAutorizacion struct {
	IDComensal string `json:"id_comensal"`
	Autorizado bool   `json:"autorizado"`
}

// GatewayPagoKind discriminates the RespuestaPago tagged union.
type GatewayPagoKind string

const (
	GatewayPagoHecho     GatewayPagoKind = "PagoHecho"
	GatewayPaymentError  GatewayPagoKind = "PaymentError"
)

// RespuestaPago answers an EfectivizarPago request.
type RespuestaPago struct {
	Kind  GatewayPagoKind `json:"kind"`
	Error string          `json:"error,omitempty"`
}
