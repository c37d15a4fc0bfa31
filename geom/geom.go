// Package geom provides the 2D primitives shared by collision and sensing.
package geom

import "math"

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Segment is an ordered pair of points. A is the origin when the segment is a ray.
type Segment struct {
	A, B Point
}

// Polygon is an implicitly closed sequence of points.
// The last point connects back to the first.
type Polygon []Point

// Reading is a touch point along a segment.
// Offset is the fractional position of Point along the first segment, in [0, 1].
type Reading struct {
	Point
	Offset float64
}

// Lerp linearly interpolates between a and b: a + (b-a)*t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// SegmentIntersection intersects AB with CD.
// It reports false when the segments are parallel or when the crossing lies
// outside either segment. The returned offset is the parameter along AB.
func SegmentIntersection(a, b, c, d Point) (Reading, bool) {
	tTop := (d.X-c.X)*(a.Y-c.Y) - (d.Y-c.Y)*(a.X-c.X)
	uTop := (c.Y-a.Y)*(a.X-b.X) - (c.X-a.X)*(a.Y-b.Y)
	bottom := (d.Y-c.Y)*(b.X-a.X) - (d.X-c.X)*(b.Y-a.Y)

	if bottom == 0 {
		return Reading{}, false
	}

	t := tTop / bottom
	u := uTop / bottom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Reading{}, false
	}

	return Reading{
		Point:  Point{X: Lerp(a.X, b.X, t), Y: Lerp(a.Y, b.Y, t)},
		Offset: t,
	}, true
}

// Edge returns the i-th edge of the polygon, wrapping the last point to the first.
func (p Polygon) Edge(i int) Segment {
	return Segment{A: p[i], B: p[(i+1)%len(p)]}
}

// PolygonsIntersect reports whether any edge of p crosses any edge of q.
// A polygon fully contained in another is not detected.
func PolygonsIntersect(p, q Polygon) bool {
	for i := range p {
		e := p.Edge(i)
		for j := range q {
			f := q.Edge(j)
			if _, ok := SegmentIntersection(e.A, e.B, f.A, f.B); ok {
				return true
			}
		}
	}
	return false
}

// PolygonIntersectsSegment reports whether any edge of p crosses s.
func PolygonIntersectsSegment(p Polygon, s Segment) bool {
	for i := range p {
		e := p.Edge(i)
		if _, ok := SegmentIntersection(e.A, e.B, s.A, s.B); ok {
			return true
		}
	}
	return false
}

// Bounds returns the axis-aligned bounding box of a set of points.
func Bounds(points ...Point) (min, max Point) {
	min = Point{X: math.Inf(1), Y: math.Inf(1)}
	max = Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range points {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}
