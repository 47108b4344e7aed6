package world

import (
	"encoding/json"
	"fmt"
	"os"

	"velvet/internal/cloth"
	"velvet/internal/components"
	"velvet/internal/engine"
	"velvet/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// --- JSON types ---

type SceneFile struct {
	Obstacles []ObstacleDef `json:"obstacles"`
	Cloths    []ClothDef    `json:"cloths"`
}

type TransformDef struct {
	Position [3]float32 `json:"position"`
	Rotation [3]float32 `json:"rotation"`
	Scale    [3]float32 `json:"scale"`
}

type ObstacleDef struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Parent string `json:"parent,omitempty"` // earlier obstacle; the transform is then local to it
	TransformDef
	Color    string       `json:"color,omitempty"`
	Animator *AnimatorDef `json:"animator,omitempty"`
}

type AnimatorDef struct {
	Amplitude     [3]float32 `json:"amplitude"`
	Frequency     float32    `json:"frequency"`
	Phase         float32    `json:"phase,omitempty"`
	RotationSpeed [3]float32 `json:"rotationSpeed,omitempty"`
}

type ClothDef struct {
	Name       string  `json:"name"`
	Resolution int     `json:"resolution"`
	Size       float32 `json:"size"`
	TransformDef
	Attached      []int  `json:"attached,omitempty"`
	PinnedCorners []int  `json:"pinnedCorners,omitempty"` // 0..3, see cloth.GridCorners
	Color         string `json:"color,omitempty"`
}

// --- Color mapping ---

var colorByName = map[string]rl.Color{
	"Red":       rl.Red,
	"Blue":      rl.Blue,
	"Green":     rl.Green,
	"Purple":    rl.Purple,
	"Orange":    rl.Orange,
	"Yellow":    rl.Yellow,
	"Pink":      rl.Pink,
	"SkyBlue":   rl.SkyBlue,
	"Lime":      rl.Lime,
	"White":     rl.White,
	"LightGray": rl.LightGray,
	"Gray":      rl.Gray,
	"DarkGray":  rl.DarkGray,
	"Gold":      rl.Gold,
}

var nameByColor map[rl.Color]string

func init() {
	nameByColor = make(map[rl.Color]string, len(colorByName))
	for name, c := range colorByName {
		nameByColor[c] = name
	}
}

func lookupColor(name string, fallback rl.Color) rl.Color {
	if c, ok := colorByName[name]; ok {
		return c
	}
	return fallback
}

func lookupColorName(c rl.Color) string {
	if name, ok := nameByColor[c]; ok {
		return name
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func vec(v [3]float32) rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

func arr(v rl.Vector3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

func (d TransformDef) transform() engine.Transform {
	t := engine.NewTransform(vec(d.Position))
	t.Rotation = vec(d.Rotation)
	// Default scale to 1 if zero
	if d.Scale != [3]float32{} {
		t.Scale = vec(d.Scale)
	}
	return t
}

func transformDef(t engine.Transform) TransformDef {
	return TransformDef{Position: arr(t.Position), Rotation: arr(t.Rotation), Scale: arr(t.Scale)}
}

// --- Loading ---

func (w *World) LoadScene(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	if err := w.LoadSceneData(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadSceneData adds the objects described by a JSON scene document. All
// obstacles are added before any cloth.
func (w *World) LoadSceneData(data []byte) error {
	var sf SceneFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse scene: %w", err)
	}

	// validate everything before touching the scene
	names := make(map[string]bool)
	claim := func(name string) error {
		if name == "" {
			return nil
		}
		if names[name] || w.Scene.FindByName(name) != nil {
			return fmt.Errorf("duplicate object name %q", name)
		}
		names[name] = true
		return nil
	}

	kinds := make([]physics.ColliderKind, len(sf.Obstacles))
	for i, def := range sf.Obstacles {
		kind, err := physics.ParseColliderKind(def.Kind)
		if err != nil {
			return fmt.Errorf("obstacle %q: %w", def.Name, err)
		}
		kinds[i] = kind
		if def.Parent != "" && (!names[def.Parent] || def.Parent == def.Name) {
			return fmt.Errorf("obstacle %q: parent %q is not an earlier obstacle", def.Name, def.Parent)
		}
		if err := claim(def.Name); err != nil {
			return err
		}
	}
	for _, def := range sf.Cloths {
		if err := claim(def.Name); err != nil {
			return err
		}
		if def.Resolution < 1 {
			return fmt.Errorf("cloth %q: resolution must be at least 1, got %d", def.Name, def.Resolution)
		}
		if def.Size <= 0 {
			return fmt.Errorf("cloth %q: size must be positive, got %g", def.Name, def.Size)
		}
		for _, corner := range def.PinnedCorners {
			if corner < 0 || corner > 3 {
				return fmt.Errorf("cloth %q: pinned corner %d not in 0..3", def.Name, corner)
			}
		}
	}

	for i, def := range sf.Obstacles {
		t := def.transform()
		g := w.AddObstacle(def.Name, kinds[i], t)
		col := engine.GetComponent[*components.Collider](g)
		col.Color = lookupColor(def.Color, col.Color)

		if a := def.Animator; a != nil {
			animator := components.NewAnimator(t.Position, vec(a.Amplitude), a.Frequency)
			animator.Phase = a.Phase
			animator.RotationSpeed = vec(a.RotationSpeed)
			g.AddComponent(animator)
		}
		if def.Parent != "" {
			w.Scene.FindByName(def.Parent).AddChild(g)
		}
	}

	for _, def := range sf.Cloths {
		attached := append([]int(nil), def.Attached...)
		corners := cloth.GridCorners(def.Resolution)
		for _, corner := range def.PinnedCorners {
			attached = append(attached, corners[corner])
		}
		c := w.AddCloth(def.Name, def.Resolution, def.Size, def.transform(), attached)
		c.Color = lookupColor(def.Color, c.Color)
	}
	return nil
}

// --- Saving ---

func (w *World) SaveScene(path string) error {
	data, err := json.MarshalIndent(w.sceneFile(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}

	return nil
}

// sceneFile captures obstacles at their animation start and cloths at their
// build transform.
func (w *World) sceneFile() SceneFile {
	var sf SceneFile

	for _, g := range w.Scene.GameObjects {
		for _, comp := range g.Components() {
			switch c := comp.(type) {
			case *components.Collider:
				def := ObstacleDef{
					Name:         g.Name,
					Kind:         c.Kind.String(),
					TransformDef: transformDef(g.Transform),
					Color:        lookupColorName(c.Color),
				}
				if g.Parent != nil {
					def.Parent = g.Parent.Name
				}
				if a := engine.GetComponent[*components.Animator](g); a != nil {
					def.Position = arr(a.StartPosition)
					def.Animator = &AnimatorDef{
						Amplitude:     arr(a.Amplitude),
						Frequency:     a.Frequency,
						Phase:         a.Phase,
						RotationSpeed: arr(a.RotationSpeed),
					}
				}
				sf.Obstacles = append(sf.Obstacles, def)

			case *components.Cloth:
				sf.Cloths = append(sf.Cloths, ClothDef{
					Name:         g.Name,
					Resolution:   c.Resolution,
					Size:         c.Size,
					TransformDef: transformDef(g.Transform),
					Attached:     append([]int(nil), c.Attached...),
					Color:        lookupColorName(c.Color),
				})
			}
		}
	}
	return sf
}
