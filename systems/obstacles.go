package systems

import (
	"cmp"
	"slices"

	"github.com/dhconnelly/rtreego"

	"github.com/pthm-cable/selfdrive/geom"
)

// Obstacles is what a car can hit or see: road borders and other cars' hulls.
// Order matters only for ties: borders first, then polygons in insertion order.
type Obstacles struct {
	Borders  []geom.Segment
	Polygons []geom.Polygon
}

// boundsPad widens every bounding box so touching boxes still overlap and
// zero-width borders get a valid rectangle.
const boundsPad = 1e-3

// obstacle is one indexed border or hull.
type obstacle struct {
	rect     rtreego.Rect
	seq      int
	owner    uint32
	hasOwner bool
	border   geom.Segment
	poly     geom.Polygon
}

// Bounds implements rtreego.Spatial.
func (o *obstacle) Bounds() rtreego.Rect {
	return o.rect
}

// ObstacleIndex is an R-tree broadphase over borders and hulls.
// Queries return the exact obstacles whose boxes overlap the query box;
// the narrow phase stays in geom.
type ObstacleIndex struct {
	tree *rtreego.Rtree
	next int
}

// NewObstacleIndex creates an index seeded with the road borders.
func NewObstacleIndex(borders []geom.Segment) *ObstacleIndex {
	ix := &ObstacleIndex{tree: rtreego.NewTree(2, 4, 16)}
	for _, b := range borders {
		ix.insert(&obstacle{border: b}, b.A, b.B)
	}
	return ix
}

// AddHull indexes a car's hull. Polygons with fewer than 3 points are ignored.
func (ix *ObstacleIndex) AddHull(owner uint32, p geom.Polygon) {
	if len(p) < 3 {
		return
	}
	ix.insert(&obstacle{owner: owner, hasOwner: true, poly: p}, p...)
}

func (ix *ObstacleIndex) insert(o *obstacle, points ...geom.Point) {
	o.seq = ix.next
	ix.next++
	o.rect = boxRect(geom.Bounds(points...))
	ix.tree.Insert(o)
}

// Query returns the obstacles whose boxes overlap the box around points,
// skipping the hull owned by exclude.
func (ix *ObstacleIndex) Query(exclude uint32, points ...geom.Point) Obstacles {
	hits := ix.tree.SearchIntersect(boxRect(geom.Bounds(points...)))

	found := make([]*obstacle, 0, len(hits))
	for _, h := range hits {
		o := h.(*obstacle)
		if o.hasOwner && o.owner == exclude {
			continue
		}
		found = append(found, o)
	}
	slices.SortFunc(found, func(a, b *obstacle) int { return cmp.Compare(a.seq, b.seq) })

	var obs Obstacles
	for _, o := range found {
		if o.hasOwner {
			obs.Polygons = append(obs.Polygons, o.poly)
		} else {
			obs.Borders = append(obs.Borders, o.border)
		}
	}
	return obs
}

func boxRect(min, max geom.Point) rtreego.Rect {
	r, err := rtreego.NewRect(
		rtreego.Point{min.X - boundsPad, min.Y - boundsPad},
		[]float64{max.X - min.X + 2*boundsPad, max.Y - min.Y + 2*boundsPad},
	)
	if err != nil {
		// Lengths are always positive after padding.
		panic(err)
	}
	return r
}
