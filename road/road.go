// Package road builds the lane-based road the cars drive on.
package road

import (
	"fmt"

	"github.com/pthm-cable/selfdrive/geom"
)

// DefaultInfinity stands in for an unbounded road length.
// A true infinity breaks the intersection math and the renderer.
const DefaultInfinity = 10_000_000

// Road is a straight vertical road with evenly sized lanes.
type Road struct {
	X         float64 // center line
	Width     float64
	LaneCount int

	Left, Right float64
	Top, Bottom float64

	borders []geom.Segment
}

// New creates a road centered on x. infinity <= 0 selects DefaultInfinity.
func New(x, width float64, laneCount int, infinity float64) (*Road, error) {
	if laneCount < 1 {
		return nil, fmt.Errorf("road: lane count must be >= 1, got %d", laneCount)
	}
	if width <= 0 {
		return nil, fmt.Errorf("road: width must be > 0, got %g", width)
	}
	if infinity <= 0 {
		infinity = DefaultInfinity
	}

	r := &Road{
		X:         x,
		Width:     width,
		LaneCount: laneCount,
		Left:      x - width/2,
		Right:     x + width/2,
		Top:       -infinity,
		Bottom:    infinity,
	}

	topLeft := geom.Point{X: r.Left, Y: r.Top}
	topRight := geom.Point{X: r.Right, Y: r.Top}
	bottomLeft := geom.Point{X: r.Left, Y: r.Bottom}
	bottomRight := geom.Point{X: r.Right, Y: r.Bottom}

	r.borders = []geom.Segment{
		{A: topLeft, B: bottomLeft},
		{A: topRight, B: bottomRight},
	}
	return r, nil
}

// Borders returns the boundary segments, left border first.
func (r *Road) Borders() []geom.Segment {
	return r.borders
}

// LaneCenter returns the x of the given lane's center.
// Out-of-range indices are clamped to the outermost lanes.
func (r *Road) LaneCenter(lane int) float64 {
	lane = min(max(lane, 0), r.LaneCount-1)
	laneWidth := r.Width / float64(r.LaneCount)
	return r.Left + laneWidth/2 + float64(lane)*laneWidth
}

// LaneMarkers returns the x positions of the internal lane dividers.
func (r *Road) LaneMarkers() []float64 {
	markers := make([]float64, 0, r.LaneCount-1)
	for i := 1; i < r.LaneCount; i++ {
		markers = append(markers, geom.Lerp(r.Left, r.Right, float64(i)/float64(r.LaneCount)))
	}
	return markers
}
