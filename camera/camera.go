// Package camera provides a 2D follow camera for the road view.
package camera

// DefaultAnchor keeps the followed car at 70% of the viewport height,
// leaving most of the screen for the road ahead.
const DefaultAnchor = 0.7

// Camera controls the viewport into the road.
// The world is unbounded in y, so there is no wrapping.
type Camera struct {
	// Position is the world point drawn at the viewport center
	X, Y float64

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Anchor is the fraction of the viewport height where Follow places the target
	Anchor float32

	// Zoom constraints
	MinZoom, MaxZoom float32

	homeX float64
}

// New creates a camera centered horizontally on roadX with 1:1 zoom.
func New(viewportW, viewportH float32, roadX float64) *Camera {
	return &Camera{
		X:         roadX,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		Anchor:    DefaultAnchor,
		MinZoom:   0.25,
		MaxZoom:   4.0,
		homeX:     roadX,
	}
}

// Follow moves the camera vertically so y appears at Anchor of the viewport height.
// The horizontal position stays on the road.
func (c *Camera) Follow(y float64) {
	offset := float64((c.Anchor - 0.5) * c.ViewportH / c.Zoom)
	c.Y = y - offset
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float32) {
	dx := float32(wx - c.X)
	dy := float32(wy - c.Y)
	sx = c.ViewportW/2 + dx*c.Zoom
	sy = c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float64) {
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (sy - c.ViewportH/2) / c.Zoom
	return c.X + float64(dx), c.Y + float64(dy)
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float64) bool {
	halfW := float64(c.ViewportW/(2*c.Zoom)) + radius
	halfH := float64(c.ViewportH/(2*c.Zoom)) + radius
	return abs(wx-c.X) <= halfW && abs(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the road center and default zoom.
func (c *Camera) Reset() {
	c.X = c.homeX
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float64) {
	halfW := float64(c.ViewportW / (2 * c.Zoom))
	halfH := float64(c.ViewportH / (2 * c.Zoom))
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
