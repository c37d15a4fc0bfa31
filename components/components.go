// Package components defines ECS components for the simulation.
package components

import (
	"github.com/pthm-cable/selfdrive/controls"
	"github.com/pthm-cable/selfdrive/geom"
)

// Kind separates scripted traffic from controlled cars.
type Kind uint8

const (
	KindTraffic Kind = iota // scripted, never senses
	KindAI                  // driven by a network
	KindPlayer              // driven by the keyboard
)

// String returns the display name for a Kind.
func (k Kind) String() string {
	switch k {
	case KindTraffic:
		return "traffic"
	case KindAI:
		return "ai"
	case KindPlayer:
		return "player"
	}
	return "unknown"
}

// Agent identifies a car.
type Agent struct {
	ID   uint32
	Kind Kind
}

// Pose is a car's position, heading and signed speed.
// Angle 0 points up (-y) and grows counter-clockwise.
type Pose struct {
	X, Y  float64
	Angle float64
	Speed float64 // negative = reverse
}

// Driver holds the car's control source and the vector sampled for this tick.
type Driver struct {
	Source  controls.Source
	Current controls.Vector
}

// Hull is the car's current silhouette. Polygon is nil until the first integration.
type Hull struct {
	Polygon geom.Polygon
}

// Damage is terminal: once Damaged is set it is never cleared.
type Damage struct {
	Damaged bool
}

// Sensor holds this tick's rays and the nearest touch per ray (nil = nothing in range).
type Sensor struct {
	Rays     []geom.Segment
	Readings []*geom.Reading
}

// Network returns the network driving the car, or nil for non-network sources.
func (d *Driver) Network() *controls.Network {
	n, _ := d.Source.(*controls.Network)
	return n
}
