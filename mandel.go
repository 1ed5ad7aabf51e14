package mandel

import (
	"fmt"
	"math"
)

// Precision selects the float width used by the iteration engine.
type Precision uint8

const (
	// Narrow renders with float32 lanes.
	Narrow Precision = iota
	// Wide renders with float64 lanes.
	Wide
)

func (p Precision) String() string {
	switch p {
	case Narrow:
		return "narrow"
	case Wide:
		return "wide"
	default:
		return fmt.Sprintf("precision(%d)", uint8(p))
	}
}

// Viewport is a window onto the complex plane plus its iteration cap.
// The vertical extent is not stored, it follows from ExtentX and the display aspect.
// Use NewViewport, the zero value is not a valid viewport.
type Viewport struct {
	OriginX, OriginY float64
	ExtentX          float64
	MaxIterations    int
	Precision        Precision
}

// NewViewport validates and returns a viewport.
// OriginY is given before aspect scaling: row y of a w×h display maps to
// aspect*(originY + extentX*y/h) where aspect = h/w.
func NewViewport(originX, originY, extentX float64, maxIter int, p Precision) (Viewport, error) {
	v := Viewport{
		OriginX:       originX,
		OriginY:       originY,
		ExtentX:       extentX,
		MaxIterations: maxIter,
		Precision:     p,
	}
	if err := v.Validate(); err != nil {
		return Viewport{}, err
	}
	return v, nil
}

// MustViewport is like NewViewport but panics on invalid input.
// It is meant for static tables.
func MustViewport(originX, originY, extentX float64, maxIter int, p Precision) Viewport {
	v, err := NewViewport(originX, originY, extentX, maxIter, p)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate reports a *ConfigError when the viewport cannot be rendered.
func (v Viewport) Validate() error {
	switch {
	case math.IsNaN(v.OriginX) || math.IsInf(v.OriginX, 0):
		return configErr("viewport.origin_x", v.OriginX, "must be finite")
	case math.IsNaN(v.OriginY) || math.IsInf(v.OriginY, 0):
		return configErr("viewport.origin_y", v.OriginY, "must be finite")
	case math.IsNaN(v.ExtentX) || math.IsInf(v.ExtentX, 0):
		return configErr("viewport.extent_x", v.ExtentX, "must be finite")
	case v.ExtentX <= 0:
		return configErr("viewport.extent_x", v.ExtentX, "must be positive")
	case v.MaxIterations <= 0:
		return configErr("viewport.max_iterations", v.MaxIterations, "must be positive")
	case v.Precision != Narrow && v.Precision != Wide:
		return configErr("viewport.precision", v.Precision, "unknown precision")
	}
	return nil
}

// ExtentY returns the vertical extent for a display with the given aspect (height/width).
func (v Viewport) ExtentY(aspect float64) float64 {
	return aspect * v.ExtentX
}

func (v Viewport) String() string {
	return fmt.Sprintf("{x:%g y:%g w:%g iters:%d %s}", v.OriginX, v.OriginY, v.ExtentX, v.MaxIterations, v.Precision)
}

// ViewportSet is the ordered render table, one list per precision.
// An empty list means that precision is skipped.
type ViewportSet struct {
	Narrow []Viewport
	Wide   []Viewport
}

// For returns the list configured for p.
func (s ViewportSet) For(p Precision) []Viewport {
	if p == Wide {
		return s.Wide
	}
	return s.Narrow
}

// Empty reports whether there is nothing to render at all.
func (s ViewportSet) Empty() bool {
	return len(s.Narrow) == 0 && len(s.Wide) == 0
}

// Validate checks every viewport and that it sits in the list matching its precision.
func (s ViewportSet) Validate() error {
	for _, p := range []Precision{Narrow, Wide} {
		for i, v := range s.For(p) {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("%s viewport %d: %w", p, i, err)
			}
			if v.Precision != p {
				return fmt.Errorf("%s viewport %d: %w", p, i, configErr("viewport.precision", v.Precision, "listed under "+p.String()))
			}
		}
	}
	return nil
}

// Cycle walks a ViewportSet forever: all narrow viewports, then all wide ones, then again.
// Empty lists are skipped without being iterated.
type Cycle struct {
	set  ViewportSet
	prec Precision
	idx  int
}

func NewCycle(set ViewportSet) *Cycle {
	return &Cycle{set: set}
}

// Next returns the next viewport. ok is false only when the set is empty.
func (c *Cycle) Next() (v Viewport, ok bool) {
	if c.set.Empty() {
		return Viewport{}, false
	}
	for {
		list := c.set.For(c.prec)
		if c.idx < len(list) {
			v = list[c.idx]
			c.idx++
			return v, true
		}
		c.idx = 0
		if c.prec == Narrow {
			c.prec = Wide
		} else {
			c.prec = Narrow
		}
	}
}

// Region within the Mandelbrot set, in plain plane coordinates.
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Viewport converts the region for a display of the given aspect (height/width).
// The horizontal span is kept, the vertical span follows from the aspect.
func (r Region) Viewport(aspect float64, maxIter int, p Precision) (Viewport, error) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return Viewport{}, configErr("aspect", aspect, "must be positive")
	}
	return NewViewport(r.Xmin, r.Ymin/aspect, r.Xmax-r.Xmin, maxIter, p)
}

// Landmarks rendered by the wide list of DefaultViewports.
var (
	// SeahorseValley: curled filaments between the cardioid and the period-2 bulb.
	SeahorseValley = Region{Xmin: -0.8, Xmax: -0.7, Ymin: 0.05, Ymax: 0.15}
	// ElephantValley: trunk-like tendrils on the far side of the cardioid.
	ElephantValley = Region{Xmin: -1.85, Xmax: -1.75, Ymin: -0.10, Ymax: -0.02}
	SpiralMinibrot = Region{Xmin: -0.7435, Xmax: -0.7420, Ymin: 0.1310, Ymax: 0.1325}
	TripleSpiral   = Region{Xmin: -0.7480, Xmax: -0.7450, Ymin: 0.0950, Ymax: 0.0980}
	// ValleyOfTheDragon needs the highest iteration cap of the table.
	ValleyOfTheDragon = Region{Xmin: -0.7400, Xmax: -0.7350, Ymin: 0.1800, Ymax: 0.1850}
	// MinibrotInMiniSpiral: a small copy of the set on the real axis spike.
	MinibrotInMiniSpiral = Region{Xmin: -1.7390, Xmax: -1.7375, Ymin: -0.0235, Ymax: -0.0220}
)

// DefaultViewports is the built-in render table.
// Narrow windows are cheap overviews, the wide ones go deep enough that float32 would band.
func DefaultViewports(aspect float64) (ViewportSet, error) {
	set := ViewportSet{
		Narrow: []Viewport{
			MustViewport(0, 1.0405, 0.26, 200, Narrow),
			MustViewport(-1.945, -0.0025, 0.005, 300, Narrow),
			MustViewport(-0.8, 1.0, 1.0, 70, Narrow),
		},
		Wide: []Viewport{
			MustViewport(-0.7665, 0.1202, 0.025, 200, Wide),
		},
	}

	landmarks := []struct {
		r    Region
		iter int
	}{
		{SeahorseValley, 400},
		{ElephantValley, 400},
		{SpiralMinibrot, 1000},
		{TripleSpiral, 800},
		{ValleyOfTheDragon, 1200},
		{MinibrotInMiniSpiral, 600},
	}
	for _, l := range landmarks {
		v, err := l.r.Viewport(aspect, l.iter, Wide)
		if err != nil {
			return ViewportSet{}, err
		}
		set.Wide = append(set.Wide, v)
	}
	return set, nil
}
