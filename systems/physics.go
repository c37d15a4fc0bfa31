// Package systems contains ECS systems for the simulation.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/controls"
	"github.com/pthm-cable/selfdrive/geom"
)

// Integrate advances the car motion model by one tick.
// Order: throttle, clamp, friction, steering, position.
func Integrate(pose *components.Pose, m components.Motion, c controls.Vector) {
	if c.Forward {
		pose.Speed += m.Acceleration
	}
	if c.Reverse {
		pose.Speed -= m.Acceleration
	}

	// Reverse is deliberately weaker than forward.
	if pose.Speed > m.MaxSpeed {
		pose.Speed = m.MaxSpeed
	}
	if pose.Speed < -m.MaxSpeed/2 {
		pose.Speed = -m.MaxSpeed / 2
	}

	if pose.Speed > 0 {
		pose.Speed -= m.Friction
	}
	if pose.Speed < 0 {
		pose.Speed += m.Friction
	}
	// Snap to rest instead of oscillating around zero.
	if math.Abs(pose.Speed) < m.Friction {
		pose.Speed = 0
	}

	// Cars only turn while rolling; reverse flips the steering direction.
	if pose.Speed != 0 {
		flip := 1.0
		if pose.Speed < 0 {
			flip = -1
		}
		if c.Left {
			pose.Angle += m.SteeringStep * flip
		}
		if c.Right {
			pose.Angle -= m.SteeringStep * flip
		}
	}

	pose.X -= math.Sin(pose.Angle) * pose.Speed
	pose.Y -= math.Cos(pose.Angle) * pose.Speed
}

// BuildPolygon returns the car's rotated rectangle.
// Corners sit on a circle of radius hypot(w,h)/2 at angles angle±alpha and
// angle+π±alpha, where alpha = atan2(w,h). Winding is counter-clockwise starting
// at the front right corner.
func BuildPolygon(pose components.Pose, body components.Body) geom.Polygon {
	rad := math.Hypot(body.Width, body.Height) / 2
	alpha := math.Atan2(body.Width, body.Height)

	corner := func(a float64) geom.Point {
		return geom.Point{
			X: pose.X - math.Sin(a)*rad,
			Y: pose.Y - math.Cos(a)*rad,
		}
	}

	return geom.Polygon{
		corner(pose.Angle - alpha),
		corner(pose.Angle + alpha),
		corner(math.Pi + pose.Angle - alpha),
		corner(math.Pi + pose.Angle + alpha),
	}
}

// PhysicsSystem moves cars and rebuilds their hulls. Damaged cars never move again.
type PhysicsSystem struct {
	filter *ecs.Filter7[
		components.Agent,
		components.Pose,
		components.Body,
		components.Motion,
		components.Driver,
		components.Hull,
		components.Damage,
	]
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World) *PhysicsSystem {
	return &PhysicsSystem{
		filter: ecs.NewFilter7[
			components.Agent,
			components.Pose,
			components.Body,
			components.Motion,
			components.Driver,
			components.Hull,
			components.Damage,
		](w),
	}
}

// Update samples each undamaged car's control source, integrates it and
// rebuilds its hull. Only cars of the given kind are touched.
func (s *PhysicsSystem) Update(kind components.Kind) {
	query := s.filter.Query()
	for query.Next() {
		agent, pose, body, motion, driver, hull, damage := query.Get()
		if agent.Kind != kind || damage.Damaged {
			continue
		}

		driver.Current = driver.Source.Sample()
		Integrate(pose, *motion, driver.Current)
		hull.Polygon = BuildPolygon(*pose, *body)
	}
}
