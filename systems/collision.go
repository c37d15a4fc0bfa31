package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/geom"
)

// Damaged reports whether the hull crosses any border or any other car's hull.
func Damaged(hull geom.Polygon, obs Obstacles) bool {
	for _, b := range obs.Borders {
		if geom.PolygonIntersectsSegment(hull, b) {
			return true
		}
	}
	for _, p := range obs.Polygons {
		if geom.PolygonsIntersect(hull, p) {
			return true
		}
	}
	return false
}

// CollisionSystem flags cars whose hull touches an obstacle. Damage is never cleared.
type CollisionSystem struct {
	filter *ecs.Filter3[components.Agent, components.Hull, components.Damage]
}

// NewCollisionSystem creates a new collision system.
func NewCollisionSystem(w *ecs.World) *CollisionSystem {
	return &CollisionSystem{
		filter: ecs.NewFilter3[components.Agent, components.Hull, components.Damage](w),
	}
}

// Update checks every undamaged car of the given kind against the index.
// It returns how many cars became damaged this tick.
func (s *CollisionSystem) Update(kind components.Kind, index *ObstacleIndex) int {
	crashed := 0
	query := s.filter.Query()
	for query.Next() {
		agent, hull, damage := query.Get()
		if agent.Kind != kind || damage.Damaged || len(hull.Polygon) < 3 {
			continue
		}

		if Damaged(hull.Polygon, index.Query(agent.ID, hull.Polygon...)) {
			damage.Damaged = true
			crashed++
		}
	}
	return crashed
}
