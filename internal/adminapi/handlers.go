// Package adminapi is the small Gin-based observability surface every
// replica exposes alongside its raw TCP protocol (SPEC_FULL.md §3.4).
//
// Grounded on the teacher's internal/api/handlers.go: a Handler struct
// holding injected dependencies, a Register method mounting route groups,
// and ShouldBindJSON + binding:"required" tags for request bodies, carried
// over near verbatim and generalized from a public KV API to read-only
// debug endpoints over this system's own domain objects.
package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axel-zielonka/tp2-delivery/internal/election"
	"github.com/axel-zielonka/tp2-delivery/internal/storage"
)

// PeerCounter reports how many peers the coordinator currently tracks.
type PeerCounter interface {
	PeerCount() int
}

// Handler holds every dependency the admin routes read from.
type Handler struct {
	selfAddr string
	store    *storage.Store
	election *election.Election
	peers    PeerCounter
}

// NewHandler builds a Handler.
func NewHandler(selfAddr string, store *storage.Store, e *election.Election, peers PeerCounter) *Handler {
	return &Handler{selfAddr: selfAddr, store: store, election: e, peers: peers}
}

// Register mounts every admin route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/leader", h.Leader)
	r.GET("/storage", h.Storage)
	r.POST("/election", h.TriggerElection)
	r.POST("/debug/courier-position", h.SetCourierPosition)
}

// Health reports this replica's id, election role, and peer count.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":    h.selfAddr,
		"role":  h.election.State().String(),
		"peers": h.peers.PeerCount(),
	})
}

// Leader reports the address this replica believes is coordinator.
func (h *Handler) Leader(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"leader": h.election.Leader()})
}

// Storage dumps every diner/restaurant/courier currently held — debugging
// only, never consulted for dispatch decisions.
func (h *Handler) Storage(c *gin.Context) {
	diners, restaurants, couriers := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"diners":      diners,
		"restaurants": restaurants,
		"couriers":    couriers,
	})
}

// TriggerElection forces this replica to start a new election — a testing
// hook, mirroring the teacher's habit of exposing an internal operation
// over HTTP (its POST /cluster/join).
func (h *Handler) TriggerElection(c *gin.Context) {
	h.election.Start()
	c.JSON(http.StatusAccepted, gin.H{"status": "election started"})
}

// SetCourierPosition lets a test harness move a courier without opening a
// raw TCP connection.
// Body: {"address": "<string>", "x": <float>, "y": <float>}
func (h *Handler) SetCourierPosition(c *gin.Context) {
	var body struct {
		Address string  `json:"address" binding:"required"`
		X       float64 `json:"x" binding:"required"`
		Y       float64 `json:"y" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	courier, ok := h.store.GetCourier(body.Address)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown courier"})
		return
	}
	courier.Position = storage.Point{body.X, body.Y}
	h.store.InsertCourier(courier)

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
