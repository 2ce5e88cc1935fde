// Package reaper runs the two periodic background tasks every replica
// schedules independently of client traffic (spec.md §4.5): the stalled-
// courier reaper and the leader-liveness pinger.
//
// Grounded on the teacher's cmd/server/main.go background snapshot ticker
// (`for range ticker.C { ... }`), repurposed from periodic snapshotting to
// periodic reaping and pinging.
package reaper

import (
	"log"
	"time"

	"github.com/axel-zielonka/tp2-delivery/internal/config"
	"github.com/axel-zielonka/tp2-delivery/internal/storage"
	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

// Broadcaster is the coordinator's delta fan-out, used to announce reaped
// couriers/diners to peers.
type Broadcaster interface {
	BroadcastStateDelta(msg any)
}

// Reaper periodically scans storage for stalled couriers and removes them.
type Reaper struct {
	store       *storage.Store
	broadcaster Broadcaster
	stopCh      chan struct{}
}

// New builds a Reaper over store, broadcasting removals through b.
func New(store *storage.Store, b Broadcaster) *Reaper {
	return &Reaper{store: store, broadcaster: b, stopCh: make(chan struct{})}
}

// Run blocks, scanning every config.ReaperPeriod until Stop is called.
func (r *Reaper) Run() {
	ticker := time.NewTicker(config.ReaperPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.reapOnce()
		case <-r.stopCh:
			return
		}
	}
}

// Stop ends the Run loop.
func (r *Reaper) Stop() {
	close(r.stopCh)
}

func (r *Reaper) reapOnce() {
	reaped := r.store.ReapStalledCouriers(config.CourierStall)
	for _, entry := range reaped {
		log.Printf("reaper: stalled courier %s (diner %s) removed", entry.CourierAddr, entry.DinerAddr)

		r.broadcaster.BroadcastStateDelta(wire.ActualizarRepartidores{
			Accion:     wire.DeltaRemove,
			Repartidor: entry.CourierAddr,
		})
		r.broadcaster.BroadcastStateDelta(wire.ActualizarComensales{
			Accion:   wire.DeltaRemove,
			Comensal: entry.DinerAddr,
		})

		if entry.DinerWriter != nil {
			line, err := wire.Encode(wire.RechazarViaje{Respuesta: wire.ReasonCourierDisconnected})
			if err != nil {
				log.Printf("reaper: encode rejection: %v", err)
				continue
			}
			entry.DinerWriter.Send(line)
		}
	}
}
