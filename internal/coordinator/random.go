package coordinator

import (
	"math/rand"

	"github.com/axel-zielonka/tp2-delivery/internal/config"
	"github.com/axel-zielonka/tp2-delivery/internal/storage"
)

// randomOrigin produces a pickup point uniformly within the map extent,
// grounded on the original system's obtener_tupla_random (spec.md §9 open
// question 5): a diner's storage entry carries a randomized origin
// alongside its caller-supplied destination.
func randomOrigin() storage.Point {
	return storage.Point{
		rand.Float64() * config.MapExtent,
		rand.Float64() * config.MapExtent,
	}
}
