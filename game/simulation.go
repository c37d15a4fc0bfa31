package game

import (
	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/systems"
	"github.com/pthm-cable/selfdrive/telemetry"
)

// Step advances the simulation by one tick.
//
// Traffic moves first so controlled cars sense and collide against this
// tick's traffic, never last tick's. Controlled cars then move, collide and
// sense; their networks decide the controls sampled on the next tick.
func (g *Game) Step() {
	g.perfCollector.StartTick()

	// 1. Traffic: scripted motion, damaged only by the borders
	g.perfCollector.StartPhase(telemetry.PhaseTraffic)
	g.physics.Update(components.KindTraffic)
	g.collision.Update(components.KindTraffic, g.borderIndex)

	// 2. Broadphase over borders and the traffic hulls just built
	g.perfCollector.StartPhase(telemetry.PhaseBroadphase)
	g.rebuildIndex()

	// 3. Controlled cars move on the controls decided last tick
	g.perfCollector.StartPhase(telemetry.PhasePhysics)
	g.physics.Update(components.KindAI)
	g.physics.Update(components.KindPlayer)

	// 4. Collision against borders and traffic
	g.perfCollector.StartPhase(telemetry.PhaseCollision)
	crashed := g.collision.Update(components.KindAI, g.index)
	crashed += g.collision.Update(components.KindPlayer, g.index)
	g.alive -= crashed
	g.damaged += crashed
	g.collector.RecordCrashes(crashed)

	// 5. Sensing and network evaluation
	g.perfCollector.StartPhase(telemetry.PhaseSensors)
	g.updateSensorsParallel()
	g.sensors.Update(components.KindPlayer, g.index)

	// 6. Leader
	g.perfCollector.StartPhase(telemetry.PhaseLeader)
	g.updateLeader()

	g.tick++

	// 7. Telemetry
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	g.logPeriodic()

	g.perfCollector.EndTick()
}

// rebuildIndex indexes the borders and every traffic hull, damaged or not.
func (g *Game) rebuildIndex() {
	g.index = systems.NewObstacleIndex(g.road.Borders())

	query := g.carFilter.Query()
	for query.Next() {
		agent, _, hull, _ := query.Get()
		if agent.Kind != components.KindTraffic {
			continue
		}
		g.index.AddHull(agent.ID, hull.Polygon)
	}
}
