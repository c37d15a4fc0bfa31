// Package renderer draws the road, the cars and the leader's network with raylib.
// It only reads simulation state.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/selfdrive/camera"
	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/game"
	"github.com/pthm-cable/selfdrive/geom"
	"github.com/pthm-cable/selfdrive/road"
)

// Scene colors.
var (
	ColorBackground = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorRoad       = rl.Color{R: 170, G: 170, B: 170, A: 255}
	ColorMarkings   = rl.White
	ColorTraffic    = rl.Color{R: 230, G: 40, B: 230, A: 255}
	ColorCar        = rl.Color{R: 20, G: 20, B: 200, A: 255}
	ColorDamaged    = rl.Color{R: 200, G: 30, B: 30, A: 255}
	ColorRayHit     = rl.Yellow
	ColorRayMiss    = rl.Black
	ColorPanel      = rl.Color{R: 30, G: 30, B: 30, A: 255}
)

// followerAlpha dims every controlled car except the leader.
const followerAlpha = 50

// Dash pattern of the lane markers in world units.
const (
	dashLength = 20
	dashGap    = 20
)

// Renderer draws one frame of the simulation.
type Renderer struct {
	Camera  *camera.Camera
	Panel   rl.Rectangle // side panel background, zero width = none
	Network rl.Rectangle // network diagram area inside the panel
}

// New creates a renderer that draws the road through cam and the leader's
// network inside the given panel area.
func New(cam *camera.Camera, panel, network rl.Rectangle) *Renderer {
	return &Renderer{Camera: cam, Panel: panel, Network: network}
}

// Draw renders the road, every car and the leader's rays and network.
// Must be called between rl.BeginDrawing and rl.EndDrawing.
func (r *Renderer) Draw(g *game.Game) {
	rl.ClearBackground(ColorBackground)

	r.DrawRoad(g.Road())

	leader, hasLeader := g.Leader()
	for _, car := range g.Cars() {
		if hasLeader && car.ID == leader.ID {
			continue
		}
		r.DrawCar(car, carColor(car, false))
	}
	if hasLeader {
		r.DrawRays(leader)
		r.DrawCar(leader, carColor(leader, true))
	}

	if r.Panel.Width > 0 {
		rl.DrawRectangleRec(r.Panel, ColorPanel)
		if hasLeader {
			n := r.Network
			DrawNetworkDiagram(int32(n.X), int32(n.Y), int32(n.Width), int32(n.Height), leader.Network)
		}
	}
}

// DrawRoad draws the road surface with dashed lane markers and solid borders.
func (r *Renderer) DrawRoad(rd *road.Road) {
	cam := r.Camera
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	top := max(rd.Top, minY)
	bottom := min(rd.Bottom, maxY)
	if rd.Right < minX || rd.Left > maxX || top > bottom {
		return
	}

	lx, ty := cam.WorldToScreen(rd.Left, top)
	rx, by := cam.WorldToScreen(rd.Right, bottom)
	rl.DrawRectangleV(rl.Vector2{X: lx, Y: ty}, rl.Vector2{X: rx - lx, Y: by - ty}, ColorRoad)

	thick := 5 * cam.Zoom
	period := float64(dashLength + dashGap)
	start := top - mod(top, period)
	for _, x := range rd.LaneMarkers() {
		for y := start; y < bottom; y += period {
			r.line(geom.Point{X: x, Y: y}, geom.Point{X: x, Y: y + dashLength}, thick, ColorMarkings)
		}
	}

	for _, b := range rd.Borders() {
		a := geom.Point{X: b.A.X, Y: max(b.A.Y, top)}
		c := geom.Point{X: b.B.X, Y: min(b.B.Y, bottom)}
		r.line(a, c, thick, ColorMarkings)
	}
}

// DrawCar draws a car's hull as a filled polygon.
func (r *Renderer) DrawCar(car game.CarView, color rl.Color) {
	if len(car.Polygon) < 3 {
		return
	}
	if !r.Camera.IsVisible(car.Pose.X, car.Pose.Y, 100) {
		return
	}

	pts := r.screenPoints(car.Polygon)
	// Hulls are convex. raylib culls one winding, so emit both.
	for i := 1; i+1 < len(pts); i++ {
		rl.DrawTriangle(pts[0], pts[i], pts[i+1], color)
		rl.DrawTriangle(pts[0], pts[i+1], pts[i], color)
	}
}

// DrawRays draws a car's sensor rays: yellow up to the touch point, black beyond.
func (r *Renderer) DrawRays(car game.CarView) {
	thick := 2 * r.Camera.Zoom
	for i, ray := range car.Rays {
		end := ray.B
		if i < len(car.Readings) && car.Readings[i] != nil {
			end = car.Readings[i].Point
		}
		r.line(ray.A, end, thick, ColorRayHit)
		r.line(ray.B, end, thick, ColorRayMiss)
	}
}

func (r *Renderer) line(a, b geom.Point, thick float32, color rl.Color) {
	ax, ay := r.Camera.WorldToScreen(a.X, a.Y)
	bx, by := r.Camera.WorldToScreen(b.X, b.Y)
	rl.DrawLineEx(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, thick, color)
}

func (r *Renderer) screenPoints(poly geom.Polygon) []rl.Vector2 {
	pts := make([]rl.Vector2, len(poly))
	for i, p := range poly {
		x, y := r.Camera.WorldToScreen(p.X, p.Y)
		pts[i] = rl.Vector2{X: x, Y: y}
	}
	return pts
}

// carColor picks the fill for a car. Controlled cars other than the leader
// are translucent.
func carColor(car game.CarView, leader bool) rl.Color {
	var c rl.Color
	switch {
	case car.Damaged:
		c = ColorDamaged
	case car.Kind == components.KindTraffic:
		c = ColorTraffic
	default:
		c = ColorCar
	}
	if car.Kind != components.KindTraffic && !leader {
		c.A = followerAlpha
	}
	return c
}

// mod is a floored modulo so dashes stay fixed in world space for negative y.
func mod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	if m < 0 {
		m += b
	}
	return m
}
