package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// LineReader frames an io.Reader by newline, exactly as spec.md §4.4
// requires: "UTF-8 JSON, one object per line, terminator \n."
type LineReader struct {
	scanner *bufio.Scanner
}

// NewLineReader wraps r for line-at-a-time reads.
func NewLineReader(r io.Reader) *LineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &LineReader{scanner: s}
}

// ReadLine returns the next newline-terminated line with the terminator
// stripped, or io.EOF when the stream ends.
func (l *LineReader) ReadLine() (string, error) {
	if l.scanner.Scan() {
		return l.scanner.Text(), nil
	}
	if err := l.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// WriteLine appends the terminator and writes to w.
func WriteLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\n")
	return err
}

// Encode serializes v as a single JSON line without the terminator;
// WriteLine appends the "\n".
func Encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %T: %w", v, err)
	}
	return string(data), nil
}

// ErrUnknownMessage is returned by Decode when a line is neither a known
// control string nor any registered JSON shape.
var ErrUnknownMessage = fmt.Errorf("unrecognized message")

// matcher checks whether raw carries the fields required by one message
// shape and, if so, unmarshals it.
type matcher struct {
	kind string
	has  []string
	new  func() any
}

// Shapes lists every known JSON message, most-specific field set first —
// "the ordered set of known message shapes" from spec.md §4.4. Decode walks
// this list and returns the first shape whose required keys are all
// present, so messages sharing a field (e.g. "posicion") must be ordered
// with the superset before the subset.
var shapes = []matcher{
	{"BuscandoTrabajo", []string{"buscando_trabajo", "posicion"}, func() any { return &BuscandoTrabajo{} }},
	{"MensajeIdentidad", []string{"ubicacion", "soy_repartidor"}, func() any { return &MensajeIdentidad{} }},
	{"Posicion", []string{"posicion"}, func() any { return &Posicion{} }},
	{"SolicitarRepartidor", []string{"comida", "origen", "destino", "pedido_aceptado", "direccion_comensal"}, func() any { return &SolicitarRepartidor{} }},
	{"SolicitarPedido", []string{"comida", "destino"}, func() any { return &SolicitarPedido{} }},
	{"FinalizarViaje", []string{"direccion_comensal_f", "direccion_conductor_f", "pos_destino"}, func() any { return &FinalizarViaje{} }},
	{"RespuestaOfertaViaje", []string{"direccion_comensal_r", "esta_aceptado"}, func() any { return &RespuestaOfertaViaje{} }},
	{"RecibirPedido", []string{"direccion_comensal_o", "comida", "ubicacion_comensal"}, func() any { return &RecibirPedido{} }},
	{"OfertarViaje", []string{"direccion_comensal_o"}, func() any { return &OfertarViaje{} }},
	{"IniciarViajeDelivery", []string{"direccion_comensal_i", "direccion_conductor_i", "origen_i", "destino_i"}, func() any { return &IniciarViajeDelivery{} }},
	{"RechazarViaje", []string{"respuesta"}, func() any { return &RechazarViaje{} }},
	{"QuienEsCoordinador", []string{"direccion_coordinador"}, func() any { return &QuienEsCoordinador{} }},
	{"MensajeEleccion", []string{"candidatos"}, func() any { return &MensajeEleccion{} }},
	{"MensajeCoordinador", []string{"coordinador"}, func() any { return &MensajeCoordinador{} }},
	{"MensajePing", []string{"id_enviador"}, func() any { return &MensajePing{} }},
	{"ActualizarComensales", []string{"accion", "comensal", "origen", "destino"}, func() any { return &ActualizarComensales{} }},
	{"ActualizarRepartidores", []string{"accion", "repartidor", "posicion"}, func() any { return &ActualizarRepartidores{} }},
	{"ActualizarRestaurantes", []string{"accion", "restaurante", "posicion"}, func() any { return &ActualizarRestaurantes{} }},
	{"HandlePedido", []string{"id_comensal_ht"}, func() any { return &HandlePedido{} }},
	{"RequerirPago", []string{"kind", "id_comensal", "valor"}, func() any { return &RequerirPago{} }},
	{"RespuestaAutorizacion", []string{"id_comensal", "autorizado"}, func() any { return &RespuestaAutorizacion{} }},
	{"RespuestaPago", []string{"kind"}, func() any { return &RespuestaPago{} }},
}

// Decode tests line against the control strings first, then the ordered
// shape list, returning the decoded message, its kind name, and an error if
// nothing matched or the line failed to parse.
func Decode(line string) (msg any, kind string, err error) {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case ControlWhoIsCoordinator:
		return nil, "WhoIsCoordinator", nil
	case ControlAck:
		return nil, "Ack", nil
	case ControlACK:
		return nil, "ACK", nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}

	for _, m := range shapes {
		if hasAll(fields, m.has) {
			v := m.new()
			if err := json.Unmarshal([]byte(trimmed), v); err != nil {
				continue
			}
			return v, m.kind, nil
		}
	}
	return nil, "", ErrUnknownMessage
}

func hasAll(fields map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return false
		}
	}
	return true
}
