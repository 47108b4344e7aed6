package game

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"velvet/internal/config"
	"velvet/internal/world"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Theme colors
var (
	colorBgDark    = rl.NewColor(10, 10, 15, 255)
	colorBgPanel   = rl.NewColor(18, 18, 24, 230)
	colorBgElement = rl.NewColor(28, 28, 38, 255)
	colorBgHover   = rl.NewColor(38, 38, 52, 255)

	colorAccent        = rl.NewColor(108, 99, 255, 255)
	colorTextPrimary   = rl.NewColor(255, 255, 255, 255)
	colorTextSecondary = rl.NewColor(200, 200, 208, 255)
	colorTextMuted     = rl.NewColor(119, 119, 119, 255)
)

// initRayguiStyle sets up the dark theme
func initRayguiStyle() {
	gui.SetStyle(gui.DEFAULT, gui.BACKGROUND_COLOR, gui.NewColorPropertyValue(colorBgDark))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_NORMAL, gui.NewColorPropertyValue(colorBgElement))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_FOCUSED, gui.NewColorPropertyValue(colorBgHover))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_PRESSED, gui.NewColorPropertyValue(colorAccent))

	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_NORMAL, gui.NewColorPropertyValue(colorTextSecondary))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_FOCUSED, gui.NewColorPropertyValue(colorTextPrimary))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_PRESSED, gui.NewColorPropertyValue(colorTextPrimary))

	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(50, 50, 65, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_FOCUSED, gui.NewColorPropertyValue(colorAccent))

	gui.SetStyle(gui.DEFAULT, gui.TEXT_SIZE, 15)
}

// PanelAction is a button the user pressed this frame.
type PanelAction int

const (
	ActionNone PanelAction = iota
	ActionReset
	ActionStep
	ActionLoadScene
)

// SceneChoice is one entry of the panel's scene list. An empty Path is the
// built-in demo.
type SceneChoice struct {
	Name string
	Path string
}

// FindScenes lists the built-in demo followed by every JSON scene in dir.
func FindScenes(dir string) ([]SceneChoice, error) {
	choices := []SceneChoice{{Name: "Default"}}
	if dir == "" {
		return choices, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return choices, fmt.Errorf("find scenes in %s: %w", dir, err)
	}
	for _, path := range paths {
		choices = append(choices, SceneChoice{Name: strings.TrimSuffix(filepath.Base(path), ".json"), Path: path})
	}
	return choices, nil
}

// SelectScene returns the index of the choice loading path, adding one for a
// scene outside the listed directory.
func SelectScene(choices []SceneChoice, path string) ([]SceneChoice, int) {
	for i, c := range choices {
		if filepath.Clean(c.Path) == filepath.Clean(path) {
			return choices, i
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return append(choices, SceneChoice{Name: name, Path: path}), len(choices)
}

const (
	panelWidth   = 300
	panelPadding = 12
	rowHeight    = 26
	labelWidth   = 120
)

// Panel edits the live SimParams. The solver reads them every tick, so
// changes apply on the next fixed step. Particle diameter and hash cell size
// are fixed at build time and only shown.
type Panel struct {
	Visible bool
	Scenes  []SceneChoice
	Current int // index into Scenes of the loaded scene
	bounds  rl.Rectangle
}

func NewPanel(scenes []SceneChoice) *Panel {
	return &Panel{Visible: true, Scenes: scenes}
}

// Hovered reports whether the mouse is over the visible panel.
func (p *Panel) Hovered() bool {
	return p.Visible && rl.CheckCollisionPointRec(rl.GetMousePosition(), p.bounds)
}

func (p *Panel) Draw(w *world.World) PanelAction {
	if !p.Visible {
		return ActionNone
	}
	params := w.Params

	screenW := float32(rl.GetScreenWidth())
	x := screenW - panelWidth - 10
	y := float32(10)
	p.bounds = rl.Rectangle{X: x, Y: y, Width: panelWidth, Height: float32(rl.GetScreenHeight()) - 20}
	rl.DrawRectangleRec(p.bounds, colorBgPanel)
	rl.DrawRectangleLinesEx(p.bounds, 1, colorAccent)

	cx := x + panelPadding
	cy := y + panelPadding
	rl.DrawText("Simulation", int32(cx), int32(cy), 20, colorTextPrimary)
	cy += 32

	row := func() (rl.Rectangle, rl.Rectangle) {
		label := rl.Rectangle{X: cx, Y: cy, Width: labelWidth, Height: rowHeight - 6}
		value := rl.Rectangle{X: cx + labelWidth, Y: cy, Width: panelWidth - 2*panelPadding - labelWidth - 40, Height: rowHeight - 6}
		cy += rowHeight
		return label, value
	}
	slider := func(name string, value, lo, hi float32, format string) float32 {
		label, bounds := row()
		rl.DrawText(name, int32(label.X), int32(label.Y+3), 15, colorTextSecondary)
		return gui.Slider(bounds, "", fmt.Sprintf(format, value), value, lo, hi)
	}
	intSlider := func(name string, value, lo, hi int) int {
		return roundInt(slider(name, float32(value), float32(lo), float32(hi), "%.0f"))
	}

	params.NumSubsteps = intSlider("Substeps", params.NumSubsteps, 1, 20)
	params.NumIterations = intSlider("Iterations", params.NumIterations, 1, 30)
	params.Gravity.Y = slider("Gravity", params.Gravity.Y, -20, 0, "%.1f")
	params.Friction = slider("Friction", params.Friction, 0, 1, "%.2f")
	params.Damping = slider("Damping", params.Damping, 0, 5, "%.2f")
	params.BendCompliance = slider("Bend compliance", params.BendCompliance, 0, 100, "%.1f")
	params.CollisionMargin = slider("Margin", params.CollisionMargin, 0, 0.2, "%.3f")
	params.InterleavedHash = intSlider("Hash interval", params.InterleavedHash, 1, 10)
	clampParams(params)

	checkBounds := rl.Rectangle{X: cx, Y: cy, Width: 18, Height: 18}
	params.EnableSelfCollision = gui.CheckBox(checkBounds, "Self collision", params.EnableSelfCollision)
	cy += rowHeight
	checkBounds.Y = cy
	w.Paused = gui.CheckBox(checkBounds, "Paused", w.Paused)
	cy += rowHeight
	checkBounds.Y = cy
	w.DrawOptions.Particles = gui.CheckBox(checkBounds, "Draw particles", w.DrawOptions.Particles)
	cy += rowHeight
	checkBounds.Y = cy
	w.DrawOptions.Wireframe = gui.CheckBox(checkBounds, "Draw wireframe", w.DrawOptions.Wireframe)
	cy += rowHeight + 6

	action := ActionNone
	buttonWidth := float32(panelWidth-2*panelPadding-10) / 2
	if gui.Button(rl.Rectangle{X: cx, Y: cy, Width: buttonWidth, Height: 28}, "Reset") {
		action = ActionReset
	}
	if gui.Button(rl.Rectangle{X: cx + buttonWidth + 10, Y: cy, Width: buttonWidth, Height: 28}, "Step") {
		action = ActionStep
	}
	cy += 44

	if len(p.Scenes) > 1 {
		rl.DrawText("Scene", int32(cx), int32(cy), 15, colorTextSecondary)
		cy += 22
		for i, scene := range p.Scenes {
			label := scene.Name
			if i == p.Current {
				label = "> " + label
			}
			if gui.Button(rl.Rectangle{X: cx, Y: cy, Width: panelWidth - 2*panelPadding, Height: 24}, label) && i != p.Current {
				p.Current = i
				action = ActionLoadScene
			}
			cy += 28
		}
		cy += 10
	}

	for _, c := range w.Cloths() {
		s := c.Solver()
		if s == nil {
			continue
		}
		st := s.Stats()
		lines := []string{
			c.GetGameObject().Name,
			fmt.Sprintf("particles %d, diameter %.3f", len(s.Positions()), s.ParticleDiameter()),
			fmt.Sprintf("max speed %.2f / %.2f", st.MaxSpeed, params.MaxSpeed),
			fmt.Sprintf("self pairs %d, contacts %d", st.NeighborPairs, st.ObstacleContacts),
		}
		for i, line := range lines {
			color := colorTextMuted
			if i == 0 {
				color = colorTextPrimary
			}
			rl.DrawText(line, int32(cx), int32(cy), 15, color)
			cy += 20
		}
		cy += 8
	}
	return action
}

func roundInt(v float32) int {
	return int(math.Round(float64(v)))
}

// clampParams pulls panel-edited values back into the range Validate accepts.
func clampParams(p *config.SimParams) {
	p.NumSubsteps = max(p.NumSubsteps, 1)
	p.InterleavedHash = max(p.InterleavedHash, 1)
	p.NumIterations = max(p.NumIterations, 0)
	p.Friction = min(max(p.Friction, 0), 1)
	p.Damping = max(p.Damping, 0)
	p.BendCompliance = max(p.BendCompliance, 0)
}
