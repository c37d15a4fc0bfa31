package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/geom"
)

func defaultRig(t *testing.T) SensorRig {
	t.Helper()
	rig, err := NewSensorRig(5, 150, math.Pi/2)
	if err != nil {
		t.Fatal(err)
	}
	return rig
}

func TestNewSensorRigRejectsZeroRays(t *testing.T) {
	if _, err := NewSensorRig(0, 150, math.Pi/2); err == nil {
		t.Error("expected error for zero rays")
	}
	if _, err := NewSensorRig(5, 0, math.Pi/2); err == nil {
		t.Error("expected error for zero length")
	}
}

func TestCastRaysFan(t *testing.T) {
	rig := defaultRig(t)
	rays := rig.CastRays(components.Pose{X: 50, Y: 0})
	if len(rays) != 5 {
		t.Fatalf("got %d rays, want 5", len(rays))
	}

	// Leftmost ray at +45° (towards -x), center straight up, rightmost at -45°.
	leftEnd := rays[0].B
	if math.Abs(leftEnd.X-(50-150*math.Sqrt2/2)) > 1e-9 || math.Abs(leftEnd.Y-(-150*math.Sqrt2/2)) > 1e-9 {
		t.Errorf("leftmost ray end: %+v", leftEnd)
	}
	center := rays[2].B
	if math.Abs(center.X-50) > 1e-9 || math.Abs(center.Y+150) > 1e-9 {
		t.Errorf("center ray end: %+v", center)
	}
	rightEnd := rays[4].B
	if math.Abs(rightEnd.X-(50+150*math.Sqrt2/2)) > 1e-9 {
		t.Errorf("rightmost ray end: %+v", rightEnd)
	}
	for i, r := range rays {
		if r.A != (geom.Point{X: 50, Y: 0}) {
			t.Errorf("ray %d origin: %+v", i, r.A)
		}
	}
}

func TestCastRaysSingleRayPointsAhead(t *testing.T) {
	rig, _ := NewSensorRig(1, 100, math.Pi/2)
	rays := rig.CastRays(components.Pose{Angle: math.Pi / 2})
	end := rays[0].B
	if math.Abs(end.X+100) > 1e-9 || math.Abs(end.Y) > 1e-9 {
		t.Errorf("single ray end: %+v, want (-100, 0)", end)
	}
}

// A wall straight ahead at distance D shows up on the center ray only.
func TestReadWallAhead(t *testing.T) {
	rig := defaultRig(t)
	const d = 100.0
	obs := Obstacles{Borders: []geom.Segment{{A: geom.Point{X: 30, Y: -d}, B: geom.Point{X: 70, Y: -d}}}}

	readings := rig.Read(rig.CastRays(components.Pose{X: 50, Y: 0}), obs)
	if len(readings) != 5 {
		t.Fatalf("got %d readings, want 5", len(readings))
	}
	if readings[2] == nil {
		t.Fatal("center ray missed the wall")
	}
	if math.Abs(readings[2].Offset-d/rig.RayLength) > 1e-9 {
		t.Errorf("center offset: got %f, want %f", readings[2].Offset, d/rig.RayLength)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if readings[i] != nil {
			t.Errorf("ray %d should not touch, got %+v", i, *readings[i])
		}
	}
}

func TestReadRayKeepsNearest(t *testing.T) {
	ray := geom.Segment{A: geom.Point{X: 0, Y: 0}, B: geom.Point{X: 0, Y: -100}}
	far := geom.Segment{A: geom.Point{X: -10, Y: -80}, B: geom.Point{X: 10, Y: -80}}
	car := geom.Polygon{{X: -5, Y: -40}, {X: -5, Y: -30}, {X: 5, Y: -30}, {X: 5, Y: -40}}

	r := ReadRay(ray, Obstacles{Borders: []geom.Segment{far}, Polygons: []geom.Polygon{car}})
	if r == nil {
		t.Fatal("expected a reading")
	}
	if math.Abs(r.Offset-0.3) > 1e-9 {
		t.Errorf("offset: got %f, want 0.3 (nearest hull edge)", r.Offset)
	}
	if math.Abs(r.Y+30) > 1e-9 {
		t.Errorf("touch point: %+v", r.Point)
	}
}

func TestReadRayNothingInRange(t *testing.T) {
	ray := geom.Segment{A: geom.Point{X: 0, Y: 0}, B: geom.Point{X: 0, Y: -100}}
	far := geom.Segment{A: geom.Point{X: -10, Y: -200}, B: geom.Point{X: 10, Y: -200}}
	if r := ReadRay(ray, Obstacles{Borders: []geom.Segment{far}}); r != nil {
		t.Errorf("expected no reading, got %+v", *r)
	}
}
