package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/selfdrive/controls"
	"github.com/pthm-cable/selfdrive/neural"
)

// Directions of the output arrows, in network output order: forward, left, right, reverse.
var outputArrows = []float32{-math.Pi / 2, math.Pi, 0, math.Pi / 2}

// Network diagram colors.
var (
	ColorNodeInactive = rl.Color{R: 60, G: 60, B: 60, A: 255}
	ColorNodeActive   = rl.Color{R: 255, G: 220, B: 60, A: 255}
	ColorEdgePositive = rl.Color{R: 230, G: 200, B: 40, A: 255}
	ColorEdgeNegative = rl.Color{R: 60, G: 120, B: 230, A: 255}
	ColorBiasPositive = rl.Color{R: 230, G: 200, B: 40, A: 255}
	ColorBiasNegative = rl.Color{R: 60, G: 120, B: 230, A: 255}
	ColorLabelDim     = rl.Color{R: 120, G: 120, B: 120, A: 255}
)

// DrawNetworkDiagram renders a network with the activations of its last feed-forward.
// Inputs are on the left, outputs on the right.
func DrawNetworkDiagram(x, y, width, height int32, n *controls.Network) {
	if n == nil || n.Net == nil {
		rl.DrawText("No network data", x+10, y+10, 14, ColorLabelDim)
		return
	}

	nn := n.Net
	nodes := layoutNodes(x, y, width, height, nn.Topology())
	nodeRadius := nodeRadiusFor(nodes, height)

	for l, layer := range nn.Layers {
		for i := range layer.InputCount() {
			for o := range layer.OutputCount() {
				drawEdge(nodes[l][i], nodes[l+1][o], layer.Weights.At(i, o))
			}
		}
	}

	for col, column := range nodes {
		values := columnValues(n.Activations, col)
		for i, pos := range column {
			var value float64
			if i < len(values) {
				value = values[i]
			}
			drawNode(pos, nodeRadius, value)

			// Hidden and output nodes carry a bias ring.
			if col > 0 {
				bias := nn.Layers[col-1].Biases[i]
				rl.DrawRing(pos, nodeRadius, nodeRadius+2, 0, 360, 24, weightColor(bias, ColorBiasPositive, ColorBiasNegative))
			}
		}
	}

	last := nodes[len(nodes)-1]
	for i, pos := range last {
		if i < len(outputArrows) {
			drawArrow(pos, nodeRadius*0.6, outputArrows[i])
		}
	}
}

// layoutNodes places one column per layer boundary, each node centered in its row.
func layoutNodes(x, y, width, height int32, counts []int) [][]rl.Vector2 {
	cols := len(counts)
	nodes := make([][]rl.Vector2, cols)
	if cols == 0 {
		return nodes
	}

	colWidth := float32(width) / float32(cols)
	for c, count := range counts {
		cx := float32(x) + colWidth*float32(c) + colWidth/2
		spacing := float32(height) / float32(count)
		nodes[c] = make([]rl.Vector2, count)
		for i := range count {
			nodes[c][i] = rl.Vector2{
				X: cx,
				Y: float32(y) + spacing*float32(i) + spacing/2,
			}
		}
	}
	return nodes
}

// nodeRadiusFor fits nodes into the densest column.
func nodeRadiusFor(nodes [][]rl.Vector2, height int32) float32 {
	most := 1
	for _, column := range nodes {
		most = max(most, len(column))
	}
	r := float32(height) / float32(most) / 3
	return min(max(r, 3), 14)
}

// columnValues returns the node values of one diagram column.
// Column 0 holds the network inputs, column i the outputs of layer i-1.
func columnValues(acts []neural.Activations, col int) []float64 {
	if col == 0 {
		if len(acts) == 0 {
			return nil
		}
		return acts[0].Inputs
	}
	if col-1 < len(acts) {
		return acts[col-1].Outputs
	}
	return nil
}

// drawNode renders a single neuron node.
func drawNode(pos rl.Vector2, radius float32, value float64) {
	rl.DrawCircleV(pos, radius, activationColor(value))
	rl.DrawCircleLinesV(pos, radius, rl.Color{R: 100, G: 100, B: 100, A: 255})
}

// drawEdge renders a connection between nodes.
func drawEdge(from, to rl.Vector2, weight float64) {
	rl.DrawLineEx(from, to, 1.5, weightColor(weight, ColorEdgePositive, ColorEdgeNegative))
}

// drawArrow draws an arrow through center pointing at angle (screen radians, 0 = right).
func drawArrow(center rl.Vector2, size, angle float32) {
	at := func(a, r float32) rl.Vector2 {
		s, c := math.Sincos(float64(a))
		return rl.Vector2{X: center.X + float32(c)*r, Y: center.Y + float32(s)*r}
	}
	tip := at(angle, size)
	tail := at(angle+math.Pi, size)
	rl.DrawLineEx(tail, tip, 2, rl.Black)
	rl.DrawLineEx(tip, at(angle+1.2, size*0.5), 2, rl.Black)
	rl.DrawLineEx(tip, at(angle-1.2, size*0.5), 2, rl.Black)
}

// weightColor picks the sign color and scales alpha with magnitude.
// Weights live in [-1, 1]; anything beyond is fully opaque.
func weightColor(w float64, positive, negative rl.Color) rl.Color {
	c := positive
	if w < 0 {
		c = negative
	}
	c.A = uint8(math.Min(math.Abs(w), 1) * 255)
	return c
}

// activationColor returns a color for a node value.
// Step activations are 0 or 1, inputs range over [0, 1].
func activationColor(v float64) rl.Color {
	t := math.Max(0, math.Min(v, 1))
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + t*(float64(b)-float64(a)))
	}
	return rl.Color{
		R: mix(ColorNodeInactive.R, ColorNodeActive.R),
		G: mix(ColorNodeInactive.G, ColorNodeActive.G),
		B: mix(ColorNodeInactive.B, ColorNodeActive.B),
		A: 255,
	}
}
