package renderer

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/game"
	"github.com/pthm-cable/selfdrive/neural"
)

func TestLayoutNodes(t *testing.T) {
	nodes := layoutNodes(0, 0, 300, 100, []int{5, 2, 4})
	require.Len(t, nodes, 3)
	assert.Len(t, nodes[0], 5)
	assert.Len(t, nodes[1], 2)
	assert.Len(t, nodes[2], 4)

	// Columns are centered in equal-width slots.
	assert.Equal(t, float32(50), nodes[0][0].X)
	assert.Equal(t, float32(150), nodes[1][0].X)
	assert.Equal(t, float32(250), nodes[2][3].X)

	// Rows are centered in equal-height slots.
	assert.Equal(t, float32(25), nodes[1][0].Y)
	assert.Equal(t, float32(75), nodes[1][1].Y)
	assert.Equal(t, float32(10), nodes[0][0].Y)
}

func TestLayoutNodesEmpty(t *testing.T) {
	assert.Empty(t, layoutNodes(0, 0, 100, 100, nil))
}

func TestColumnValues(t *testing.T) {
	acts := []neural.Activations{
		{Inputs: []float64{0.5, 0}, Outputs: []float64{1, 0, 1}},
		{Inputs: []float64{1, 0, 1}, Outputs: []float64{0, 1, 0, 0}},
	}
	assert.Equal(t, []float64{0.5, 0}, columnValues(acts, 0))
	assert.Equal(t, []float64{1, 0, 1}, columnValues(acts, 1))
	assert.Equal(t, []float64{0, 1, 0, 0}, columnValues(acts, 2))
	assert.Nil(t, columnValues(acts, 3))
	assert.Nil(t, columnValues(nil, 0))
}

func TestWeightColor(t *testing.T) {
	pos := weightColor(0.5, ColorEdgePositive, ColorEdgeNegative)
	assert.Equal(t, ColorEdgePositive.R, pos.R)
	assert.Equal(t, uint8(127), pos.A)

	neg := weightColor(-1, ColorEdgePositive, ColorEdgeNegative)
	assert.Equal(t, ColorEdgeNegative.B, neg.B)
	assert.Equal(t, uint8(255), neg.A)

	assert.Equal(t, uint8(0), weightColor(0, ColorEdgePositive, ColorEdgeNegative).A)
	assert.Equal(t, uint8(255), weightColor(3, ColorEdgePositive, ColorEdgeNegative).A)
}

func TestActivationColor(t *testing.T) {
	assert.Equal(t, ColorNodeInactive, activationColor(0))
	assert.Equal(t, ColorNodeActive, activationColor(1))
	assert.Equal(t, ColorNodeActive, activationColor(2))
}

func TestCarColor(t *testing.T) {
	tests := []struct {
		name   string
		car    game.CarView
		leader bool
		want   rl.Color
	}{
		{"leader", game.CarView{Kind: components.KindAI}, true, ColorCar},
		{"damaged leader", game.CarView{Kind: components.KindAI, Damaged: true}, true, ColorDamaged},
		{"traffic", game.CarView{Kind: components.KindTraffic}, false, ColorTraffic},
		{"damaged traffic", game.CarView{Kind: components.KindTraffic, Damaged: true}, false, ColorDamaged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, carColor(tt.car, tt.leader))
		})
	}

	follower := carColor(game.CarView{Kind: components.KindAI}, false)
	assert.Equal(t, uint8(followerAlpha), follower.A)
	assert.Equal(t, ColorCar.B, follower.B)
}

func TestMod(t *testing.T) {
	assert.Equal(t, 10.0, mod(50, 40))
	assert.Equal(t, 30.0, mod(-50, 40))
	assert.Equal(t, 0.0, mod(-80, 40))
}
