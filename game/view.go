package game

import (
	"cmp"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/controls"
	"github.com/pthm-cable/selfdrive/geom"
)

// CarView is a read-only copy of one car's state for rendering and tests.
// Slices alias the game's buffers and are only valid until the next step.
type CarView struct {
	Entity     ecs.Entity
	Generation int // generation the entity belongs to
	ID       uint32
	Kind     components.Kind
	Pose     components.Pose
	Polygon  geom.Polygon
	Damaged  bool
	Rays     []geom.Segment
	Readings []*geom.Reading
	Network  *controls.Network // nil unless network-driven
	Controls controls.Vector   // applied on the last step
}

// Car returns the view of a car of the current generation.
// Restart replaces the world, so entities from earlier generations must not be
// passed here: the new world may reuse the handle for another car. Use Refresh
// to follow a view across restarts.
func (g *Game) Car(e ecs.Entity) (CarView, bool) {
	if !g.world.Alive(e) {
		return CarView{}, false
	}
	return g.carView(e), true
}

// Refresh returns the current state of the car behind v, or false once the
// car's generation has been replaced.
func (g *Game) Refresh(v CarView) (CarView, bool) {
	if v.Generation != g.generation {
		return CarView{}, false
	}
	return g.Car(v.Entity)
}

func (g *Game) carView(e ecs.Entity) CarView {
	agent, pose, _, _, driver, hull, damage := g.carMapper.Get(e)
	sensor := g.sensorMap.Get(e)
	return CarView{
		Entity:     e,
		Generation: g.generation,
		ID:         agent.ID,
		Kind:       agent.Kind,
		Pose:       *pose,
		Polygon:    hull.Polygon,
		Damaged:    damage.Damaged,
		Rays:       sensor.Rays,
		Readings:   sensor.Readings,
		Network:    driver.Network(),
		Controls:   driver.Current,
	}
}

// Leader returns the current best controlled car.
func (g *Game) Leader() (CarView, bool) {
	if !g.hasLeader {
		return CarView{}, false
	}
	return g.carView(g.leader), true
}

// Cars returns every car ordered by ID: traffic first, then controlled cars.
func (g *Game) Cars() []CarView {
	var entities []ecs.Entity
	query := g.carFilter.Query()
	for query.Next() {
		entities = append(entities, query.Entity())
	}

	views := make([]CarView, len(entities))
	for i, e := range entities {
		views[i] = g.carView(e)
	}
	slices.SortFunc(views, func(a, b CarView) int { return cmp.Compare(a.ID, b.ID) })
	return views
}
