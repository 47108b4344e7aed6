package game

import (
	"fmt"
	"log"
	"time"

	"velvet/internal/camera"
	"velvet/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type Game struct {
	World     *world.World
	Camera    *camera.FlyCamera
	Panel     *Panel
	DebugMode bool

	// Debug timing (ms)
	updateMs float64
	drawMs   float64
}

// New wraps an already populated world. The world is started in Run, once
// the window exists. scenes feeds the panel's scene list; current is the
// entry w was loaded from.
func New(w *world.World, scenes []SceneChoice, current int) *Game {
	cam := camera.New(rl.Vector3{X: 3.5, Y: 3, Z: 3.5})
	cam.LookAt(rl.Vector3{Y: 1})
	panel := NewPanel(scenes)
	panel.Current = current
	return &Game{
		World:  w,
		Camera: cam,
		Panel:  panel,
	}
}

func (g *Game) Run() error {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagMsaa4xHint)
	rl.InitWindow(1280, 720, "Velvet")
	defer rl.CloseWindow()

	rl.SetTargetFPS(120)
	initRayguiStyle()

	if err := g.World.Start(); err != nil {
		return err
	}
	log.Println("Viewer: space pauses, N steps, R resets, F1 toggles the panel, F3 toggles debug")

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()
	}
	return nil
}

func (g *Game) Update() {
	updateStart := time.Now()
	deltaTime := rl.GetFrameTime()

	if rl.IsKeyPressed(rl.KeySpace) {
		g.World.Paused = !g.World.Paused
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.World.Reset()
	}
	if rl.IsKeyPressed(rl.KeyN) && g.World.Paused {
		g.World.Step()
	}
	if rl.IsKeyPressed(rl.KeyF1) {
		g.Panel.Visible = !g.Panel.Visible
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		g.DebugMode = !g.DebugMode
	}
	g.World.DrawOptions.Bounds = g.DebugMode

	// the panel owns the mouse while hovered
	if !g.Panel.Hovered() {
		g.Camera.Update(deltaTime)
	}

	g.World.Update(deltaTime)
	g.updateMs = float64(time.Since(updateStart).Microseconds()) / 1000.0
}

func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(20, 20, 30, 255))

	drawStart := time.Now()
	rl.BeginMode3D(g.Camera.GetRaylibCamera())
	g.World.Draw()
	rl.DrawGrid(20, 0.5)
	rl.EndMode3D()
	g.drawMs = float64(time.Since(drawStart).Microseconds()) / 1000.0

	g.DrawUI()
	rl.EndDrawing()
}

func (g *Game) DrawUI() {
	rl.DrawText("Right mouse to look, WASD/QE to move", 10, 10, 20, rl.LightGray)
	rl.DrawFPS(10, 35)

	status := fmt.Sprintf("Tick %d", g.World.Ticks())
	if g.World.Paused {
		status += " (paused)"
	}
	rl.DrawText(status, 10, 60, 16, rl.Yellow)

	if g.DebugMode {
		rl.DrawText(fmt.Sprintf("Update:  %.2f ms", g.updateMs), 10, 85, 16, rl.Green)
		rl.DrawText(fmt.Sprintf("Draw:    %.2f ms", g.drawMs), 10, 105, 16, rl.Green)
	}

	action := g.Panel.Draw(g.World)
	switch action {
	case ActionReset:
		g.World.Reset()
	case ActionStep:
		g.World.Step()
	case ActionLoadScene:
		g.loadScene(g.Panel.Scenes[g.Panel.Current])
	}
}

// loadScene swaps the world contents for choice, falling back to the default
// scene when it cannot be loaded.
func (g *Game) loadScene(choice SceneChoice) {
	w := g.World
	w.Clear()

	var err error
	if choice.Path == "" {
		w.DefaultScene()
	} else {
		err = w.LoadScene(choice.Path)
	}
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		log.Printf("Viewer: load scene %s: %v, using the default scene", choice.Name, err)
		w.Clear()
		w.DefaultScene()
		if err := w.Start(); err != nil {
			log.Printf("Viewer: %v", err)
		}
		g.Panel.Current = 0
		return
	}
	log.Printf("Viewer: loaded scene %s", choice.Name)
}
