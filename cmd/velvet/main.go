// Command velvet runs a cloth scene without a window.
//
//	velvet [-config sim.toml] [-scene scene.json] [-ticks 600] [-serve :8080]
//
// With -serve the simulation runs in real time and streams every tick to
// websocket clients on /ws; it keeps running until interrupted when -ticks
// is 0.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"velvet/internal/config"
	"velvet/internal/stream"
	"velvet/internal/world"
)

func main() {
	configPath := flag.String("config", "", "TOML simulation parameters (defaults when empty)")
	scenePath := flag.String("scene", "", "JSON scene file (built-in demo when empty)")
	ticks := flag.Int("ticks", 600, "fixed ticks to run, 0 for no limit")
	serveAddr := flag.String("serve", "", "address to stream frames on, e.g. :8080")
	logEvery := flag.Int("log-every", 60, "log cloth stats every N ticks")
	flag.Parse()

	if err := run(*configPath, *scenePath, *ticks, *serveAddr, *logEvery); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, scenePath string, ticks int, serveAddr string, logEvery int) error {
	params := config.Default()
	if configPath != "" {
		var err error
		if params, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if ticks == 0 && serveAddr == "" {
		return errors.New("-ticks 0 needs -serve")
	}

	w := world.New(params)
	if scenePath != "" {
		if err := w.LoadScene(scenePath); err != nil {
			return err
		}
	} else {
		w.DefaultScene()
	}
	if err := w.Start(); err != nil {
		return err
	}

	if logEvery > 0 {
		w.Ticked.AddListener(func(tick uint64) {
			if tick%uint64(logEvery) == 0 {
				logStats(w, tick)
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if serveAddr == "" {
		return runHeadless(ctx, w, ticks)
	}
	return runServing(ctx, w, ticks, serveAddr)
}

func runHeadless(ctx context.Context, w *world.World, ticks int) error {
	start := time.Now()
	for i := 0; i < ticks; i++ {
		if ctx.Err() != nil {
			break
		}
		w.Step()
	}
	elapsed := time.Since(start)
	log.Printf("Velvet: %d ticks in %v (%.3f ms/tick)", w.Ticks(), elapsed.Round(time.Millisecond),
		float64(elapsed.Microseconds())/1000/float64(max(w.Ticks(), 1)))
	return checkFinite(w)
}

func runServing(ctx context.Context, w *world.World, ticks int, addr string) error {
	srv := stream.NewServer()
	for _, c := range w.Cloths() {
		name := c.GetGameObject().Name
		if err := srv.SetTopology(name, c.Solver().Indices()); err != nil {
			return err
		}
	}
	w.Ticked.AddListener(func(tick uint64) {
		for _, c := range w.Cloths() {
			s := c.Solver()
			if err := srv.Publish(c.GetGameObject().Name, tick, s.Positions(), s.Normals()); err != nil {
				log.Printf("Velvet: %v", err)
			}
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	httpServer := &http.Server{Addr: addr, Handler: mux}
	errc := make(chan error, 1)
	go func() {
		log.Printf("Velvet: streaming on ws://%s/ws", addr)
		errc <- httpServer.ListenAndServe()
	}()
	defer func() {
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	dt := time.Duration(float64(w.Params.FixedDeltaTime) * float64(time.Second))
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	last := time.Now()
	for ticks == 0 || w.Ticks() < uint64(ticks) {
		select {
		case <-ctx.Done():
			return checkFinite(w)
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("stream server: %w", err)
		case cmd := <-srv.Commands():
			if cmd.Paused != nil {
				w.Paused = *cmd.Paused
				log.Printf("Velvet: paused=%v", w.Paused)
			}
			if cmd.Reset {
				w.Reset()
				log.Println("Velvet: reset")
			}
		case now := <-ticker.C:
			w.Update(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
	return checkFinite(w)
}

func logStats(w *world.World, tick uint64) {
	for _, c := range w.Cloths() {
		s := c.Solver()
		if s == nil {
			continue
		}
		st := s.Stats()
		log.Printf("Velvet: tick %d %s: max speed %.2f, %d self pairs, %d obstacle contacts",
			tick, c.GetGameObject().Name, st.MaxSpeed, st.NeighborPairs, st.ObstacleContacts)
	}
}

func checkFinite(w *world.World) error {
	for _, c := range w.Cloths() {
		if err := c.Solver().CheckFinite(); err != nil {
			return fmt.Errorf("%s: %w", c.GetGameObject().Name, err)
		}
	}
	return nil
}
