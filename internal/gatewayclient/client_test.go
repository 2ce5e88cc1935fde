package gatewayclient

import (
	"bufio"
	"net"
	"testing"

	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

func fakeGatewayServer(t *testing.T, respond func(req string) string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		line, _ := bufio.NewReader(c).ReadString('\n')
		c.Write([]byte(respond(line) + "\n"))
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

func TestAuthorizeReturnsAuthorizedTrue(t *testing.T) {
	addr := fakeGatewayServer(t, func(req string) string {
		line, _ := wire.Encode(wire.RespuestaAutorizacion{IDComensal: "d1", Autorizado: true})
		return line
	})

	c := &Client{address: addr, dial: net.Dial}
	ok, err := c.Authorize("d1", 10)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !ok {
		t.Fatal("expected authorized=true")
	}
}

func TestCaptureReturnsErrorOnPaymentError(t *testing.T) {
	addr := fakeGatewayServer(t, func(req string) string {
		line, _ := wire.Encode(wire.RespuestaPago{Kind: wire.GatewayPaymentError, Error: "insufficient funds"})
		return line
	})

	c := &Client{address: addr, dial: net.Dial}
	if err := c.Capture("d1", 10); err == nil {
		t.Fatal("expected capture error")
	}
}

func TestCaptureSucceedsOnPagoHecho(t *testing.T) {
	addr := fakeGatewayServer(t, func(req string) string {
		line, _ := wire.Encode(wire.RespuestaPago{Kind: wire.GatewayPagoHecho})
		return line
	})

	c := &Client{address: addr, dial: net.Dial}
	if err := c.Capture("d1", 10); err != nil {
		t.Fatalf("Capture: %v", err)
	}
}
