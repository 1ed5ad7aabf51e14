// Command mandelpng renders a single viewport and saves it as a PNG file.
// The frame is computed at -scale times the output size and resampled down.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"time"

	mandel "github.com/marben/lanemandel"
	"github.com/marben/lanemandel/present"
	"github.com/marben/lanemandel/render"
)

var (
	out      = flag.String("o", "mandel.png", "output file")
	width    = flag.Int("width", 1920, "output width in pixels")
	height   = flag.Int("height", 1080, "output height in pixels")
	scale    = flag.Int("scale", 2, "supersampling factor")
	view     = flag.Int("view", 0, "index into the default viewports, narrow ones first")
	originX  = flag.Float64("x", 0, "left edge, used when -extent is set")
	originY  = flag.Float64("y", 0, "top edge before aspect scaling, used when -extent is set")
	extent   = flag.Float64("extent", 0, "horizontal extent, 0 to use -view")
	iters    = flag.Int("iters", 500, "iteration cap, used when -extent is set")
	wide     = flag.Bool("wide", true, "float64 lanes, used when -extent is set")
	exponent = flag.Float64("exponent", 2, "exponent p of z^p+c")
	caption  = flag.Bool("caption", true, "stamp the viewport and exponent in the corner")
	lanes    = flag.Int("lanes", render.DefaultLanes, "rows iterated together per lane batch")
	workers  = flag.Int("workers", 0, "render workers, 0 for GOMAXPROCS")
	scalar   = flag.Bool("scalar", false, "iterate lanes with a plain loop instead of vectors")
	palette  = flag.String("palette", "", "comma separated #rrggbb colors, empty for the default")
	band     = flag.Float64("band", 15, "iterations per palette entry")
)

func main() {
	log.Printf("Starting mandelpng...")
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	if *scale <= 0 {
		return mandel.NewConfigError("scale", *scale, "must be positive")
	}
	if *width <= 0 || *height <= 0 {
		return mandel.NewConfigError("size", fmt.Sprintf("%dx%d", *width, *height), "must be positive")
	}

	v, err := chooseViewport()
	if err != nil {
		return err
	}
	pal, err := render.ParsePaletteList(*palette, *band)
	if err != nil {
		return err
	}
	engine, err := render.New(render.Options{Lanes: *lanes, Workers: *workers, Scalar: *scalar})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer engine.Close()

	d := &present.Driver{
		Engine:  engine,
		Palette: pal,
		OnFrame: func(fi present.FrameInfo) {
			log.Printf("computed %v of %s p=%g (%s kernel, %s) in %s",
				fi.Size, fi.Viewport, fi.Exponent, fi.Kernel, engine.Target(), fi.Elapsed)
		},
	}
	if err := d.Prepare(*width * *scale, *height * *scale); err != nil {
		return err
	}
	frame, err := d.RenderOnce(v, *exponent)
	if err != nil {
		return err
	}

	start := time.Now()
	img := downscale(frame, *width, *height)
	if *caption {
		stampCaption(img, fmt.Sprintf("%s  p=%g", v, *exponent))
	}
	log.Printf("resampled to %dx%d in %s", *width, *height, time.Since(start))

	log.Printf("Saving rendered image to %q...", *out)
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", *out, err)
	}

	log.Printf("Rendered image saved to %q", *out)
	return nil
}

func chooseViewport() (mandel.Viewport, error) {
	if *extent > 0 {
		p := mandel.Narrow
		if *wide {
			p = mandel.Wide
		}
		return mandel.NewViewport(*originX, *originY, *extent, *iters, p)
	}
	set, err := mandel.DefaultViewports(float64(*height) / float64(*width))
	if err != nil {
		return mandel.Viewport{}, err
	}
	return pickViewport(set, *view)
}

// pickViewport indexes the narrow list followed by the wide one.
func pickViewport(set mandel.ViewportSet, i int) (mandel.Viewport, error) {
	all := append(append([]mandel.Viewport(nil), set.Narrow...), set.Wide...)
	if i < 0 || i >= len(all) {
		return mandel.Viewport{}, mandel.NewConfigError("view", i, fmt.Sprintf("want 0..%d", len(all)-1))
	}
	return all[i], nil
}
