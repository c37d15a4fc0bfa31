package ui

import (
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/selfdrive/camera"
)

// Action is a user request coming from a button or a key.
type Action int

const (
	ActionNone Action = iota
	ActionSave
	ActionDiscard
	ActionRestart
	ActionTogglePause
	ActionSlower
	ActionFaster
)

// Controller is the part of the game the UI may drive.
type Controller interface {
	Save() error
	Discard() error
	Restart()
	TogglePause()
	StepsPerUpdate() int
	SetStepsPerUpdate(n int)
}

// Apply performs an action on the game. Persistence failures are logged
// and returned; the simulation keeps running.
func Apply(c Controller, a Action) error {
	var err error
	switch a {
	case ActionSave:
		err = c.Save()
	case ActionDiscard:
		err = c.Discard()
	case ActionRestart:
		c.Restart()
	case ActionTogglePause:
		c.TogglePause()
	case ActionSlower:
		c.SetStepsPerUpdate(c.StepsPerUpdate() - 1)
	case ActionFaster:
		c.SetStepsPerUpdate(c.StepsPerUpdate() + 1)
	}
	if err != nil {
		slog.Warn("ui action failed", "action", a.String(), "error", err)
	}
	return err
}

func (a Action) String() string {
	switch a {
	case ActionSave:
		return "save"
	case ActionDiscard:
		return "discard"
	case ActionRestart:
		return "restart"
	case ActionTogglePause:
		return "pause"
	case ActionSlower:
		return "slower"
	case ActionFaster:
		return "faster"
	default:
		return "none"
	}
}

// ControlsPanel holds the champion buttons.
type ControlsPanel struct {
	Theme Theme
	x, y  int32
}

// NewControlsPanel creates a button row at the given position.
func NewControlsPanel(x, y int32) *ControlsPanel {
	return &ControlsPanel{Theme: DefaultTheme(), x: x, y: y}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Draw renders the buttons and returns the one clicked this frame, if any.
func (c *ControlsPanel) Draw() Action {
	const w, h, gap = 80, 28, 8
	x := float32(c.x)
	y := float32(c.y)

	action := ActionNone
	for _, b := range []struct {
		label  string
		action Action
	}{
		{"Save", ActionSave},
		{"Discard", ActionDiscard},
		{"Restart", ActionRestart},
	} {
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: h}, b.label) {
			action = b.action
		}
		x += w + gap
	}
	return action
}

// PollKeys maps this frame's key presses to an action.
// Arrow keys are left to the keyboard driver.
func PollKeys() Action {
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		return ActionTogglePause
	case rl.IsKeyPressed(rl.KeyComma):
		return ActionSlower
	case rl.IsKeyPressed(rl.KeyPeriod):
		return ActionFaster
	case rl.IsKeyPressed(rl.KeyS):
		return ActionSave
	case rl.IsKeyPressed(rl.KeyD):
		return ActionDiscard
	case rl.IsKeyPressed(rl.KeyR):
		return ActionRestart
	}
	return ActionNone
}

// PollCamera applies mouse-wheel zoom and the home key to the camera.
func PollCamera(cam *camera.Camera) {
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
	}
}

// ControlsLegend is the key help shown at the bottom of the screen.
const ControlsLegend = "Space pause  ,/. speed  S/D/R save/discard/restart"
