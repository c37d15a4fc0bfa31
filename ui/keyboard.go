package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/selfdrive/controls"
)

// Keyboard drives a car from the arrow keys. It must only be sampled
// after the window is open.
type Keyboard struct{}

// Sample implements controls.Source.
func (Keyboard) Sample() controls.Vector {
	return controls.Vector{
		Forward: rl.IsKeyDown(rl.KeyUp),
		Reverse: rl.IsKeyDown(rl.KeyDown),
		Left:    rl.IsKeyDown(rl.KeyLeft),
		Right:   rl.IsKeyDown(rl.KeyRight),
	}
}
