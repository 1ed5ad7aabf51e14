// Command server renders the default viewports forever and streams every revealed box to
// browser viewers over websocket. The wasm client in cmd/webclient draws them on a canvas.
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

	mandel "github.com/marben/lanemandel"
	"github.com/marben/lanemandel/present"
	"github.com/marben/lanemandel/render"
)

var (
	addr      = flag.String("addr", ":8080", "http listen address")
	static    = flag.String("static", "./static", "directory with index.html and main.wasm")
	width     = flag.Int("width", 960, "frame width in pixels")
	height    = flag.Int("height", 540, "frame height in pixels")
	lanes     = flag.Int("lanes", render.DefaultLanes, "rows iterated together per lane batch")
	workers   = flag.Int("workers", 0, "render workers, 0 for GOMAXPROCS")
	scalar    = flag.Bool("scalar", false, "iterate lanes with a plain loop instead of vectors")
	boxes     = flag.Int("boxes", 20, "reveal boxes across the frame")
	delay     = flag.Duration("delay", 15*time.Millisecond, "pause after each reveal step")
	wait      = flag.Duration("wait", 30*time.Second, "pause after a revealed frame")
	exponents = flag.String("exponents", "2", "exponent sweep, start:stop:step or a comma list")
	palette   = flag.String("palette", "", "comma separated #rrggbb colors, empty for the default")
	band      = flag.Float64("band", 15, "iterations per palette entry")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

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
	viewports, err := mandel.DefaultViewports(float64(*height) / float64(*width))
	if err != nil {
		return err
	}

	h := newHub(*width, *height)
	wsListener, httpServer := webServer(ctx, *addr, *static, h)
	defer wsListener.Close()

	go func() {
		log.Printf("listening on http://localhost%s", *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("httpServer: %v", err)
		}
	}()
	go func() {
		if err := h.serve(wsListener); err != nil {
			log.Printf("hub: %v", err)
		}
	}()

	log.Printf("engine: %d lanes, %d workers, %s", engine.Lanes(), engine.Workers(), engine.Target())
	d := &present.Driver{
		Engine:    engine,
		Palette:   pal,
		Viewports: viewports,
		Exponents: sweep,
		Boxes:     *boxes,
		Delay:     *delay,
		Wait:      *wait,
		Display:   h,
		OnFrame: func(fi present.FrameInfo) {
			log.Printf("%s p=%g (%s kernel) computed in %s", fi.Viewport, fi.Exponent, fi.Kernel, fi.Elapsed)
		},
	}
	runErr := d.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
