package game

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/controls"
	"github.com/pthm-cable/selfdrive/neural"
	"github.com/pthm-cable/selfdrive/telemetry"
)

// AddCar spawns a car at pose driven by src. Traffic uses the traffic top speed.
// The hull is built on the car's first step.
func (g *Game) AddCar(kind components.Kind, pose components.Pose, src controls.Source) ecs.Entity {
	maxSpeed := g.cfg.Car.MaxSpeed
	if kind == components.KindTraffic {
		maxSpeed = g.cfg.Traffic.MaxSpeed
	}

	agent := components.Agent{ID: g.nextID, Kind: kind}
	g.nextID++
	body := components.BodyFromConfig(g.cfg.Car)
	motion := components.MotionFromConfig(g.cfg.Car, maxSpeed)
	driver := components.Driver{Source: src}
	hull := components.Hull{}
	damage := components.Damage{}

	entity := g.carMapper.NewEntity(&agent, &pose, &body, &motion, &driver, &hull, &damage)
	g.sensorMap.Add(entity, &components.Sensor{})

	if kind != components.KindTraffic {
		g.alive++
	}
	return entity
}

// spawnTraffic places the configured traffic cars.
func (g *Game) spawnTraffic() {
	for _, tc := range g.cfg.Traffic.Cars {
		pose := components.Pose{X: g.road.LaneCenter(tc.Lane), Y: tc.Y}
		g.AddCar(components.KindTraffic, pose, controls.ConstantForward())
	}
}

// spawnPose is where controlled cars start.
func (g *Game) spawnPose() components.Pose {
	return components.Pose{X: g.road.LaneCenter(g.cfg.Car.SpawnLane), Y: g.cfg.Car.SpawnY}
}

// spawnPlayer creates the single keyboard-driven car.
func (g *Game) spawnPlayer() {
	g.AddCar(components.KindPlayer, g.spawnPose(), g.opts.Player)
}

// spawnPopulation creates one network-driven car per population slot, seeded
// from the stored champion when there is a usable one.
func (g *Game) spawnPopulation() {
	topology := g.cfg.Derived.Topology
	champion := g.loadChampion(topology)

	nets, err := neural.NewPopulation(g.rng, g.cfg.Population.Size, topology, champion, g.cfg.Population.MutationAmount)
	if err != nil {
		// Topology and size are validated with the config.
		panic(fmt.Sprintf("game: building population: %v", err))
	}
	for _, nn := range nets {
		g.AddCar(components.KindAI, g.spawnPose(), controls.NewNetwork(nn))
	}
}

// loadChampion returns the stored champion, or nil when there is none or it
// cannot seed this topology. Failures never stop the game.
func (g *Game) loadChampion(topology []int) *neural.Network {
	nn, err := g.store.Load()
	switch {
	case errors.Is(err, telemetry.ErrNoChampion):
		slog.Info("no champion stored, starting from random networks")
		return nil
	case err != nil:
		slog.Warn("champion unusable, starting from random networks", "error", err)
		return nil
	case !nn.HasTopology(topology):
		slog.Warn("champion topology mismatch, starting from random networks",
			"champion", nn.Topology(),
			"want", topology,
		)
		return nil
	}

	bw := nn.MarshalWeights()
	slog.Info("champion loaded", "fingerprint", fmt.Sprintf("%016x", bw.Fingerprint()))
	return nn
}
