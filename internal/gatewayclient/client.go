// Package gatewayclient implements the coordinator's side of the payment
// gateway contract (SPEC_FULL.md §6, struct shapes lifted from
// original_source's common/src/mensajes_gateway.rs). The gateway process
// itself is out of scope; this package only dials it and speaks its wire
// contract.
package gatewayclient

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/axel-zielonka/tp2-delivery/internal/config"
	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

func unmarshalLine(line string, v any) error {
	if err := json.Unmarshal([]byte(line), v); err != nil {
		return fmt.Errorf("gatewayclient: decode %T: %w", v, err)
	}
	return nil
}

// Client satisfies coordinator.GatewayClient by dialing config.GatewayAddress
// fresh for every request, mirroring the short-lived-connection style the
// original's gateway client uses (no persistent pool).
type Client struct {
	address string
	dial    func(network, address string) (net.Conn, error)
}

// New builds a Client targeting config.GatewayAddress.
func New() *Client {
	return &Client{address: config.GatewayAddress, dial: net.Dial}
}

// Authorize asks the gateway to place a hold for amount against dinerAddr,
// returning whether it was authorized.
func (c *Client) Authorize(dinerAddr string, amount float64) (bool, error) {
	resp, err := c.roundTrip(wire.RequerirPago{
		Kind:       wire.GatewayValidarAutorizacionPago,
		IDComensal: dinerAddr,
		Valor:      amount,
	})
	if err != nil {
		return false, err
	}

	var auth wire.RespuestaAutorizacion
	if err := resp.decodeInto(&auth); err != nil {
		return false, err
	}
	return auth.Autorizado, nil
}

// Capture asks the gateway to finalize a previously authorized payment.
func (c *Client) Capture(dinerAddr string, amount float64) error {
	resp, err := c.roundTrip(wire.RequerirPago{
		Kind:       wire.GatewayEfectivizarPago,
		IDComensal: dinerAddr,
		Valor:      amount,
	})
	if err != nil {
		return err
	}

	var pago wire.RespuestaPago
	if err := resp.decodeInto(&pago); err != nil {
		return err
	}
	if pago.Kind == wire.GatewayPaymentError {
		return fmt.Errorf("gateway rejected payment for %s: %s", dinerAddr, pago.Error)
	}
	return nil
}

// rawResponse carries the single line read back from the gateway.
type rawResponse struct {
	line string
}

func (r rawResponse) decodeInto(v any) error {
	return unmarshalLine(r.line, v)
}

// roundTrip dials, sends one request line, and reads one response line,
// bounded by config.GatewayTimeout end to end.
func (c *Client) roundTrip(req any) (rawResponse, error) {
	conn, err := c.dial("tcp", c.address)
	if err != nil {
		return rawResponse{}, fmt.Errorf("gatewayclient: dial %s: %w", c.address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(config.GatewayTimeout)
	conn.SetDeadline(deadline)

	line, err := wire.Encode(req)
	if err != nil {
		return rawResponse{}, err
	}
	if err := wire.WriteLine(conn, line); err != nil {
		return rawResponse{}, fmt.Errorf("gatewayclient: write: %w", err)
	}

	reader := wire.NewLineReader(conn)
	respLine, err := reader.ReadLine()
	if err != nil {
		return rawResponse{}, fmt.Errorf("gatewayclient: read: %w", err)
	}
	return rawResponse{line: respLine}, nil
}
