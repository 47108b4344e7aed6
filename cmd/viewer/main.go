// Command viewer opens a window on a cloth scene with a live parameter panel.
//
//	viewer [-config sim.toml] [-scene scene.json] [-scenes assets/scenes]
package main

import (
	"flag"
	"log"
	"runtime"

	"velvet/internal/config"
	"velvet/internal/game"
	"velvet/internal/world"
)

func init() {
	// raylib calls must come from the main thread
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML simulation parameters (defaults when empty)")
	scenePath := flag.String("scene", "", "JSON scene file (built-in demo when empty)")
	sceneDir := flag.String("scenes", "assets/scenes", "directory of JSON scenes offered in the panel")
	flag.Parse()

	params := config.Default()
	if *configPath != "" {
		var err error
		if params, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if err := params.Validate(); err != nil {
		log.Fatal(err)
	}

	w := world.New(params)
	if *scenePath != "" {
		if err := w.LoadScene(*scenePath); err != nil {
			log.Fatal(err)
		}
	} else {
		w.DefaultScene()
	}

	scenes, err := game.FindScenes(*sceneDir)
	if err != nil {
		log.Printf("Viewer: %v", err)
	}
	scenes, current := game.SelectScene(scenes, *scenePath)

	if err := game.New(w, scenes, current).Run(); err != nil {
		log.Fatal(err)
	}
}
