// Package render computes escape-time iteration counts for a viewport and maps them to colors.
//
// Every column of the frame is split into lane groups of Options.Lanes rows that are
// iterated together, either through go-highway vectors or a plain loop over lanes.
// Columns are spread over a persistent worker pool. Results do not depend on either choice.
package render

import (
	"fmt"
	"math"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"

	mandel "github.com/marben/lanemandel"
)

// DefaultLanes is the lane group height used by DefaultOptions.
const DefaultLanes = 16

// columnBatch is how many columns a worker claims at once.
const columnBatch = 4

type Options struct {
	// Lanes is the number of rows iterated together. It must be positive.
	Lanes int
	// Workers is the pool size, GOMAXPROCS when <= 0.
	Workers int
	// Scalar replaces the vector lane operations with a plain loop over lanes.
	Scalar bool
}

func DefaultOptions() Options {
	return Options{Lanes: DefaultLanes}
}

// Engine renders frames. It is safe for use by one frame at a time.
type Engine struct {
	opts Options
	pool *workerpool.Pool
}

func New(opts Options) (*Engine, error) {
	if opts.Lanes <= 0 {
		return nil, mandel.NewConfigError("lanes", opts.Lanes, "must be positive")
	}
	return &Engine{
		opts: opts,
		pool: workerpool.New(opts.Workers),
	}, nil
}

// Close stops the worker pool. A closed engine keeps working on the calling goroutine.
func (e *Engine) Close() {
	e.pool.Close()
}

func (e *Engine) Lanes() int {
	return e.opts.Lanes
}

func (e *Engine) Workers() int {
	return e.pool.NumWorkers()
}

// Target names the lane implementation in use, e.g. "avx2" or "scalar loop".
func (e *Engine) Target() string {
	if e.opts.Scalar {
		return "scalar loop"
	}
	return hwy.CurrentName()
}

// ComputeIterations returns the width*height row-major escape counts of v for exponent p.
// Pixels that never escape hold v.MaxIterations.
func (e *Engine) ComputeIterations(v mandel.Viewport, width, height int, p float64) ([]int32, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	fb := &FrameBuffers{
		Width:  width,
		Height: height,
		Iter:   make([]int32, width*height),
	}
	if err := e.Compute(fb, v, p); err != nil {
		return nil, err
	}
	return fb.Iter, nil
}

// Compute fills fb.Iter for v and exponent p, reusing the buffer.
func (e *Engine) Compute(fb *FrameBuffers, v mandel.Viewport, p float64) error {
	if fb == nil || len(fb.Iter) != fb.Width*fb.Height {
		return fmt.Errorf("compute: frame buffers not allocated")
	}
	if err := checkSize(fb.Width, fb.Height); err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return err
	}
	if err := checkExponent(p); err != nil {
		return err
	}

	k := SelectKernel(p)
	switch v.Precision {
	case mandel.Narrow:
		computeFrame[float32](e, fb, v, k, p)
	case mandel.Wide:
		computeFrame[float64](e, fb, v, k, p)
	}
	fb.MaxIter = v.MaxIterations
	return nil
}

// Colorize maps fb.Iter into fb.RGB, rows spread over the pool.
func (e *Engine) Colorize(fb *FrameBuffers, pal Palette) error {
	if err := fb.checkRGB(); err != nil {
		return err
	}
	e.pool.ParallelFor(fb.Height, func(start, end int) {
		fb.colorizeRows(pal, start, end)
	})
	return nil
}

func computeFrame[T hwy.Floats](e *Engine, fb *FrameBuffers, v mandel.Viewport, k Kernel, p float64) {
	lanes := e.opts.Lanes
	m := newMapping[T](v.OriginX, v.OriginY, v.ExtentX, fb.Width, fb.Height)
	step := stepper[T](k, e.opts.Scalar)

	e.pool.ParallelForAtomicBatched(fb.Width, columnBatch, func(start, end int) {
		b := newLaneBatch[T](lanes)
		for x := start; x < end; x++ {
			cre := m.re(x)
			for y0 := 0; y0 < fb.Height; y0 += lanes {
				b.reset(cre, m, y0, min(lanes, fb.Height-y0))
				b.run(step, T(p), v.MaxIterations)
				b.store(fb.Iter, x, y0, fb.Width)
			}
		}
	})
}

func checkSize(width, height int) error {
	if width <= 0 {
		return mandel.NewConfigError("width", width, "must be positive")
	}
	if height <= 0 {
		return mandel.NewConfigError("height", height, "must be positive")
	}
	return nil
}

func checkExponent(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return mandel.NewConfigError("exponent", p, "must be a positive finite number")
	}
	return nil
}
