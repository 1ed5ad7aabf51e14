// Command mandelterm cycles through the default viewports in the terminal,
// two pixels per character cell. Any key quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	mandel "github.com/marben/lanemandel"
	"github.com/marben/lanemandel/present"
	"github.com/marben/lanemandel/render"
)

var (
	lanes     = flag.Int("lanes", render.DefaultLanes, "rows iterated together per lane batch")
	workers   = flag.Int("workers", 0, "render workers, 0 for GOMAXPROCS")
	scalar    = flag.Bool("scalar", false, "iterate lanes with a plain loop instead of vectors")
	boxes     = flag.Int("boxes", 20, "reveal boxes across the screen")
	delay     = flag.Duration("delay", 15*time.Millisecond, "pause after each reveal step")
	wait      = flag.Duration("wait", 30*time.Second, "pause after a revealed frame")
	exponents = flag.String("exponents", "2:10:1", "exponent sweep, start:stop:step or a comma list")
	palette   = flag.String("palette", "", "comma separated #rrggbb colors, empty for the default")
	band      = flag.Float64("band", 15, "iterations per palette entry")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

// frameStats is filled while the screen is owned by tcell and logged after it is released.
type frameStats struct {
	frames  int
	compute time.Duration
	last    present.FrameInfo
}

func run() error {
	engine, err := render.New(render.Options{Lanes: *lanes, Workers: *workers, Scalar: *scalar})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer engine.Close()

	pal, err := render.ParsePaletteList(*palette, *band)
	if err != nil {
		return err
	}
	sweep, err := present.ParseExponents(*exponents)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("tcell.NewScreen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen.Init: %w", err)
	}
	screenDone := false
	finish := func() {
		if !screenDone {
			screen.Fini()
			screenDone = true
		}
	}
	defer finish()

	term := present.NewTerminal(screen)
	w, h := term.Size()
	viewports, err := mandel.DefaultViewports(float64(h) / float64(w))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	term.WatchQuit(ctx, cancel)

	var stats frameStats
	d := &present.Driver{
		Engine:    engine,
		Palette:   pal,
		Viewports: viewports,
		Exponents: sweep,
		Boxes:     *boxes,
		Delay:     *delay,
		Wait:      *wait,
		Display:   term,
		OnFrame: func(fi present.FrameInfo) {
			stats.frames++
			stats.compute += fi.Elapsed
			stats.last = fi
		},
	}
	runErr := d.Run(ctx)
	finish()

	if stats.frames > 0 {
		log.Printf("%d frames of %v on %s, %s average, last %s p=%g",
			stats.frames, stats.last.Size, engine.Target(),
			stats.compute/time.Duration(stats.frames), stats.last.Viewport, stats.last.Exponent)
	}
	if errors.Is(runErr, present.ErrQuit) || errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
