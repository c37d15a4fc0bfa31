package ui

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/selfdrive/systems"
	"github.com/pthm-cable/selfdrive/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title       string
	Mode        string
	Tick        int32
	Generation  int
	Alive       int
	Damaged     int
	LeaderY     float64
	LeaderSpeed float64
	HasLeader   bool
	Speed       int
	FPS         int32
	Paused      bool
}

// HUD renders the main heads-up display.
type HUD struct {
	Theme Theme
	x, y  int32
}

// NewHUD creates a HUD anchored at the given position.
func NewHUD(x, y int32) *HUD {
	return &HUD{Theme: DefaultTheme(), x: x, y: y}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	x := h.x + 7
	h.Theme.DrawPanel(h.x, h.y, 250, 100)

	rl.DrawText(data.Title, x, h.y+5, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Mode: %s | Gen: %d | Cars: %d (%d damaged)", data.Mode, data.Generation, data.Alive, data.Damaged),
		x, h.y+30, h.Theme.FontSize, h.Theme.LabelColor,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d", data.Tick, data.Speed, data.FPS),
		x, h.y+47, h.Theme.FontSize, h.Theme.LabelColor,
	)

	if data.HasLeader {
		rl.DrawText(
			fmt.Sprintf("Leader y: %.0f | speed: %.2f", data.LeaderY, data.LeaderSpeed),
			x, h.y+64, h.Theme.FontSize, h.Theme.ValueColor,
		)
	}

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, x, h.y+81, h.Theme.HeaderFontSize, rl.Yellow)
}

// DrawControls renders the control legend.
func (h *HUD) DrawControls(x, y int32, controls string) {
	rl.DrawText(controls, x, y, 10, rl.Gray)
}

// PerfPanel renders per-phase step timings.
type PerfPanel struct {
	Theme    Theme
	Registry *systems.SystemRegistry
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32, registry *systems.SystemRegistry) *PerfPanel {
	return &PerfPanel{
		Theme:    DefaultTheme(),
		Registry: registry,
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	rows := perfRows(stats, p.Registry)

	height := p.Theme.Padding*2 + p.Theme.LineHeight*int32(len(rows)+2)
	p.Theme.DrawPanel(p.x, p.y, 250, height)

	x := p.x + p.Theme.Padding
	y := p.y + p.Theme.Padding

	rl.DrawText("Step Performance", x, y, p.Theme.HeaderFontSize, p.Theme.SectionHeader)
	y += p.Theme.LineHeight

	rl.DrawText(
		fmt.Sprintf("Tick: %s | %.0f ticks/s", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond),
		x, y, p.Theme.FontSize, p.Theme.ValueColor,
	)
	y += p.Theme.LineHeight

	for _, row := range rows {
		color := p.Theme.LabelColor
		if row.Pct > 40 {
			color = rl.Red
		} else if row.Pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-16s %8s %5.1f%%", row.Name, row.Avg.Round(time.Microsecond), row.Pct),
			x, y, p.Theme.FontSize, color,
		)
		y += p.Theme.LineHeight
	}
}

// perfRow is one phase line of the performance panel.
type perfRow struct {
	Name string
	Avg  time.Duration
	Pct  float64
}

// perfRows orders phases by cost, most expensive first, using registry display names.
func perfRows(stats telemetry.PerfStats, registry *systems.SystemRegistry) []perfRow {
	rows := make([]perfRow, 0, len(stats.Phases))
	for _, t := range stats.Phases {
		name := t.Name
		if registry != nil {
			name = registry.Name(t.Name)
		}
		rows = append(rows, perfRow{Name: name, Avg: t.Avg, Pct: t.Pct})
	}
	slices.SortFunc(rows, func(a, b perfRow) int {
		if c := cmp.Compare(b.Avg, a.Avg); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return rows
}
