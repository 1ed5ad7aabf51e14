package present

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	mandel "github.com/marben/lanemandel"
	"github.com/marben/lanemandel/render"
)

// ErrNoViewports is returned by Run when neither precision has a viewport.
var ErrNoViewports = errors.New("no viewports configured")

// FrameInfo describes a frame that was just computed.
type FrameInfo struct {
	Viewport mandel.Viewport
	Exponent float64
	Kernel   render.Kernel
	Size     image.Point
	Elapsed  time.Duration
}

// Driver renders viewports forever and reveals every frame on Display box by box.
type Driver struct {
	Engine    *render.Engine
	Palette   render.Palette
	Viewports mandel.ViewportSet
	// Exponents are rendered in order for every viewport, {2} when empty.
	Exponents []float64
	// Boxes is the number of reveal boxes across the frame.
	Boxes int
	// Delay is the pause after each reveal step.
	Delay time.Duration
	// Wait is the pause after a fully revealed frame.
	Wait    time.Duration
	Display mandel.Display
	// OnFrame, if set, is called after every computed frame.
	OnFrame func(FrameInfo)

	fb    *render.FrameBuffers
	img   *image.RGBA
	steps [][]image.Rectangle
}

// Prepare validates the configuration and allocates buffers for a width×height frame.
// Run calls it with the display size.
func (d *Driver) Prepare(width, height int) error {
	if d.Engine == nil {
		return fmt.Errorf("driver: no engine")
	}
	if _, err := render.NewPalette(d.Palette.Colors, d.Palette.BandWidth); err != nil {
		return err
	}
	if err := d.Viewports.Validate(); err != nil {
		return err
	}
	if d.Delay < 0 {
		return mandel.NewConfigError("delay", d.Delay, "must not be negative")
	}
	if d.Wait < 0 {
		return mandel.NewConfigError("wait", d.Wait, "must not be negative")
	}

	if d.fb != nil && d.fb.Width == width && d.fb.Height == height {
		return nil
	}
	fb, err := render.NewFrameBuffers(width, height)
	if err != nil {
		return err
	}
	d.fb = fb
	d.img = nil
	d.steps = nil
	return nil
}

// RenderOnce computes and colorizes one frame. The returned image is reused by the next call.
func (d *Driver) RenderOnce(v mandel.Viewport, exponent float64) (*image.RGBA, error) {
	if d.fb == nil {
		return nil, fmt.Errorf("driver: Prepare was not called")
	}

	start := time.Now()
	if err := d.Engine.Compute(d.fb, v, exponent); err != nil {
		return nil, fmt.Errorf("compute %v p=%g: %w", v, exponent, err)
	}
	if err := d.Engine.Colorize(d.fb, d.Palette); err != nil {
		return nil, fmt.Errorf("colorize: %w", err)
	}
	d.img = d.fb.RGBA(d.img)

	if d.OnFrame != nil {
		d.OnFrame(FrameInfo{
			Viewport: v,
			Exponent: exponent,
			Kernel:   render.SelectKernel(exponent),
			Size:     image.Pt(d.fb.Width, d.fb.Height),
			Elapsed:  time.Since(start),
		})
	}
	return d.img, nil
}

// Run cycles through the viewports until ctx is done and returns its cause.
// Cancellation is noticed between reveal steps and during pauses, never inside a computation.
func (d *Driver) Run(ctx context.Context) error {
	if d.Viewports.Empty() {
		return ErrNoViewports
	}
	if d.Display == nil {
		return fmt.Errorf("driver: no display")
	}
	w, h := d.Display.Size()
	if err := d.Prepare(w, h); err != nil {
		return err
	}
	if d.steps == nil {
		steps, err := RevealSteps(image.Rect(0, 0, w, h), d.Boxes)
		if err != nil {
			return err
		}
		d.steps = steps
	}

	exponents := d.Exponents
	if len(exponents) == 0 {
		exponents = []float64{2}
	}

	cycle := mandel.NewCycle(d.Viewports)
	for {
		v, _ := cycle.Next()
		for _, p := range exponents {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			img, err := d.RenderOnce(v, p)
			if err != nil {
				return err
			}
			if err := d.reveal(ctx, img); err != nil {
				return err
			}
			if err := pause(ctx, d.Wait); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) reveal(ctx context.Context, img *image.RGBA) error {
	for _, step := range d.steps {
		for _, r := range step {
			if err := d.Display.Blit(img, r); err != nil {
				return fmt.Errorf("blit %v: %w", r, err)
			}
		}
		if err := d.Display.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		if err := pause(ctx, d.Delay); err != nil {
			return err
		}
	}
	return nil
}

// pause sleeps for dur unless ctx ends first.
func pause(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}
