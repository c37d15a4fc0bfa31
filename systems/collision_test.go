package systems

import (
	"testing"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/geom"
	"github.com/pthm-cable/selfdrive/road"
)

func testBorders(t *testing.T) []geom.Segment {
	t.Helper()
	// Borders at x=10 and x=90.
	r, err := road.New(50, 80, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	return r.Borders()
}

var testBody = components.Body{Width: 30, Height: 50}

func TestDamagedInsideRoad(t *testing.T) {
	hull := BuildPolygon(components.Pose{X: 50, Y: 0}, testBody)
	if Damaged(hull, Obstacles{Borders: testBorders(t)}) {
		t.Error("car in the middle of the road reported damaged")
	}
}

func TestDamagedAcrossBorder(t *testing.T) {
	hull := BuildPolygon(components.Pose{X: 5, Y: 0}, testBody)
	if !Damaged(hull, Obstacles{Borders: testBorders(t)}) {
		t.Error("car straddling the left border not damaged")
	}
}

func TestDamagedByOtherCar(t *testing.T) {
	hull := BuildPolygon(components.Pose{X: 50, Y: 0}, testBody)
	other := BuildPolygon(components.Pose{X: 60, Y: -40}, testBody)
	if !Damaged(hull, Obstacles{Polygons: []geom.Polygon{other}}) {
		t.Error("overlapping cars not damaged")
	}
	farAway := BuildPolygon(components.Pose{X: 50, Y: -200}, testBody)
	if Damaged(hull, Obstacles{Polygons: []geom.Polygon{farAway}}) {
		t.Error("distant car caused damage")
	}
}

func TestObstacleIndexQuery(t *testing.T) {
	borders := testBorders(t)
	ix := NewObstacleIndex(borders)

	near := BuildPolygon(components.Pose{X: 50, Y: -40}, testBody)
	far := BuildPolygon(components.Pose{X: 50, Y: -1000}, testBody)
	self := BuildPolygon(components.Pose{X: 50, Y: 0}, testBody)
	ix.AddHull(1, self)
	ix.AddHull(2, near)
	ix.AddHull(3, far)
	ix.AddHull(4, geom.Polygon{{X: 0, Y: 0}}) // ignored

	obs := ix.Query(1, self...)
	if len(obs.Borders) != 0 {
		t.Errorf("borders are 40 units away, got %d", len(obs.Borders))
	}
	if len(obs.Polygons) != 1 {
		t.Fatalf("got %d polygons, want only the near car", len(obs.Polygons))
	}

	// A wide query sees both borders in order.
	wide := ix.Query(1, geom.Point{X: 0, Y: -10}, geom.Point{X: 100, Y: 10})
	if len(wide.Borders) != 2 || wide.Borders[0] != borders[0] || wide.Borders[1] != borders[1] {
		t.Errorf("wide query borders: %+v", wide.Borders)
	}
}

func TestObstacleIndexMatchesBruteForce(t *testing.T) {
	borders := testBorders(t)
	ix := NewObstacleIndex(borders)
	var hulls []geom.Polygon
	for i, y := range []float64{-100, -300, -500} {
		h := BuildPolygon(components.Pose{X: 50, Y: y}, testBody)
		hulls = append(hulls, h)
		ix.AddHull(uint32(i+10), h)
	}

	for y := 50.0; y > -600; y -= 7 {
		for _, x := range []float64{5, 30, 50, 85} {
			hull := BuildPolygon(components.Pose{X: x, Y: y, Angle: 0.3}, testBody)
			want := Damaged(hull, Obstacles{Borders: borders, Polygons: hulls})
			got := Damaged(hull, ix.Query(0, hull...))
			if got != want {
				t.Fatalf("(%f, %f): index says %v, brute force says %v", x, y, got, want)
			}
		}
	}
}
