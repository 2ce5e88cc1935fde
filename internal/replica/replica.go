package replica

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/axel-zielonka/tp2-delivery/internal/adminapi"
	"github.com/axel-zielonka/tp2-delivery/internal/config"
	"github.com/axel-zielonka/tp2-delivery/internal/coordinator"
	"github.com/axel-zielonka/tp2-delivery/internal/election"
	"github.com/axel-zielonka/tp2-delivery/internal/gatewayclient"
	"github.com/axel-zielonka/tp2-delivery/internal/hub"
	"github.com/axel-zielonka/tp2-delivery/internal/reaper"
	"github.com/axel-zielonka/tp2-delivery/internal/storage"
	"github.com/axel-zielonka/tp2-delivery/internal/wire"
)

// Replica bundles every component one process needs: storage, election,
// coordinator, hub, reaper/pinger, and the admin HTTP surface — the same
// role the teacher's cmd/server/main.go plays by constructing store,
// cluster.Membership, and cluster.Replicator before starting its router.
type Replica struct {
	selfAddr string
	port     int

	store       *storage.Store
	election    *election.Election
	coordinator *coordinator.Coordinator
	hub         *hub.Hub
	reaper      *reaper.Reaper
	pinger      *reaper.Pinger
	adminRouter *gin.Engine
}

// New builds a Replica listening on port, peered with every other port in
// config.MinPeerPort..config.MaxPeerPort.
func New(port int) *Replica {
	selfAddr := fmt.Sprintf("127.0.0.1:%d", port)

	store := storage.New()
	transport := newPeerTransport()

	peerPorts := make([]int, 0, config.MaxPeerPort-config.MinPeerPort+1)
	for p := config.MinPeerPort; p <= config.MaxPeerPort; p++ {
		peerPorts = append(peerPorts, p)
	}

	r := &Replica{selfAddr: selfAddr, port: port, store: store}

	r.election = election.New(selfAddr, port, peerPorts, transport, r.onLeaderChange)
	r.coordinator = coordinator.New(selfAddr, store, r.election, gatewayclient.New())
	for _, p := range peerPorts {
		if p == port {
			continue
		}
		addr := fmt.Sprintf("127.0.0.1:%d", p)
		r.coordinator.AddPeer(addr, &peerWriter{addr: addr, transport: transport})
	}

	d := newDispatcher(store, r.coordinator, r.election)
	r.hub = hub.New(d)

	r.reaper = reaper.New(store, r.coordinator)
	r.pinger = reaper.NewPinger(r.election, r.election, func(leaderAddr string) error {
		return transport.pingLeader(leaderAddr, selfAddr)
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(adminapi.Logger(selfAddr), adminapi.Recovery(selfAddr))
	adminapi.NewHandler(selfAddr, store, r.election, r.coordinator).Register(engine)
	r.adminRouter = engine

	return r
}

// onLeaderChange logs every leadership transition, per SPEC_FULL.md §3.1's
// one-line-per-state-transition logging style.
func (r *Replica) onLeaderChange(leaderAddr string, becameLeader bool) {
	if becameLeader {
		log.Printf("replica %s: promoted to leader", r.selfAddr)
	} else {
		log.Printf("replica %s: following %s", r.selfAddr, leaderAddr)
	}
}

// Run starts the TCP hub, reaper, pinger, and admin HTTP server, then
// bootstraps leadership discovery. It blocks serving the TCP hub.
func (r *Replica) Run(adminAddr string) error {
	go r.reaper.Run()
	go r.pinger.Run()
	go func() {
		if err := r.adminRouter.Run(adminAddr); err != nil {
			log.Printf("replica %s: admin API stopped: %v", r.selfAddr, err)
		}
	}()

	go r.bootstrapLeadership()

	return r.hub.Serve(r.selfAddr)
}

// bootstrapLeadership implements spec.md §4.1's startup rule: broadcast
// WhoIsCoordinator to every peer; adopt the first reply's reported leader,
// or start an election with self as sole candidate if nobody answers.
func (r *Replica) bootstrapLeadership() {
	transport := newPeerTransport()
	for p := config.MinPeerPort; p <= config.MaxPeerPort; p++ {
		if p == r.port {
			continue
		}
		addr := fmt.Sprintf("127.0.0.1:%d", p)
		resp, err := transport.SendWhoIsCoordinator(addr)
		if err == nil && resp.DireccionCoordinador != "" {
			r.election.HandleCoordinatorMessage(wire.MensajeCoordinador{Coordinador: resp.DireccionCoordinador})
			return
		}
	}
	r.election.Start()
}
