package systems

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/controls"
	"github.com/pthm-cable/selfdrive/geom"
)

// SensorRig is a fan of rays centered on the car's heading.
type SensorRig struct {
	RayCount  int
	RayLength float64
	RaySpread float64 // radians; leftmost ray at +spread/2
}

// NewSensorRig validates and creates a sensor rig.
func NewSensorRig(rayCount int, rayLength, raySpread float64) (SensorRig, error) {
	if rayCount < 1 {
		return SensorRig{}, fmt.Errorf("sensor: ray count must be >= 1, got %d", rayCount)
	}
	if rayLength <= 0 {
		return SensorRig{}, fmt.Errorf("sensor: ray length must be > 0, got %g", rayLength)
	}
	return SensorRig{RayCount: rayCount, RayLength: rayLength, RaySpread: raySpread}, nil
}

// CastRays returns one ray per sensor, origin at the car, from left to right.
// A single ray points straight ahead.
func (r SensorRig) CastRays(pose components.Pose) []geom.Segment {
	rays := make([]geom.Segment, r.RayCount)
	for i := range rays {
		t := 0.5
		if r.RayCount > 1 {
			t = float64(i) / float64(r.RayCount-1)
		}
		angle := geom.Lerp(r.RaySpread/2, -r.RaySpread/2, t) + pose.Angle

		start := geom.Point{X: pose.X, Y: pose.Y}
		end := geom.Point{
			X: pose.X - math.Sin(angle)*r.RayLength,
			Y: pose.Y - math.Cos(angle)*r.RayLength,
		}
		rays[i] = geom.Segment{A: start, B: end}
	}
	return rays
}

// ReadRay returns the nearest touch along the ray, or nil if nothing is in range.
// Ties keep the first touch found, borders before hulls.
func ReadRay(ray geom.Segment, obs Obstacles) *geom.Reading {
	var nearest *geom.Reading
	consider := func(c, d geom.Point) {
		touch, ok := geom.SegmentIntersection(ray.A, ray.B, c, d)
		if ok && (nearest == nil || touch.Offset < nearest.Offset) {
			nearest = &touch
		}
	}

	for _, b := range obs.Borders {
		consider(b.A, b.B)
	}
	for _, p := range obs.Polygons {
		for j := range p {
			e := p.Edge(j)
			consider(e.A, e.B)
		}
	}
	return nearest
}

// Read returns the nearest touch per ray.
func (r SensorRig) Read(rays []geom.Segment, obs Obstacles) []*geom.Reading {
	readings := make([]*geom.Reading, len(rays))
	for i, ray := range rays {
		readings[i] = ReadRay(ray, obs)
	}
	return readings
}

// Sense casts the fan from pose and reads every ray against the index,
// ignoring the hull owned by id. readings is reused when large enough.
func (r SensorRig) Sense(id uint32, pose components.Pose, index *ObstacleIndex, readings []*geom.Reading) ([]geom.Segment, []*geom.Reading) {
	rays := r.CastRays(pose)
	if cap(readings) < len(rays) {
		readings = make([]*geom.Reading, len(rays))
	}
	readings = readings[:len(rays)]
	for i, ray := range rays {
		readings[i] = ReadRay(ray, index.Query(id, ray.A, ray.B))
	}
	return rays, readings
}

// SensorSystem casts rays for cars of one kind and feeds observers.
// Damaged cars keep sensing.
type SensorSystem struct {
	rig    SensorRig
	filter *ecs.Filter4[components.Agent, components.Pose, components.Driver, components.Sensor]
}

// NewSensorSystem creates a new sensor system.
func NewSensorSystem(w *ecs.World, rig SensorRig) *SensorSystem {
	return &SensorSystem{
		rig:    rig,
		filter: ecs.NewFilter4[components.Agent, components.Pose, components.Driver, components.Sensor](w),
	}
}

// Rig returns the sensor configuration.
func (s *SensorSystem) Rig() SensorRig {
	return s.rig
}

// Update refreshes the readings of every car of the given kind and hands them
// to the car's control source when it observes.
func (s *SensorSystem) Update(kind components.Kind, index *ObstacleIndex) {
	query := s.filter.Query()
	for query.Next() {
		agent, pose, driver, sensor := query.Get()
		if agent.Kind != kind {
			continue
		}

		sensor.Rays, sensor.Readings = s.rig.Sense(agent.ID, *pose, index, sensor.Readings)

		if obs, ok := driver.Source.(controls.Observer); ok {
			obs.Observe(sensor.Readings)
		}
	}
}
