package render

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	mandel "github.com/marben/lanemandel"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New(%+v): %v", opts, err)
	}
	t.Cleanup(e.Close)
	return e
}

// overview is the full set on a 100x75 display: center (50,37) is 0+0.5425i, inside the cardioid.
var overview = mandel.MustViewport(-2, -1.25, 4, 50, mandel.Wide)

func TestNewRejectsNonPositiveLanes(t *testing.T) {
	for _, lanes := range []int{0, -3} {
		_, err := New(Options{Lanes: lanes})
		if !errors.Is(err, mandel.ErrConfig) {
			t.Errorf("lanes %d: got %v, want ErrConfig", lanes, err)
		}
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())

	tests := []struct {
		name string
		w, h int
		v    mandel.Viewport
		p    float64
	}{
		{"zero width", 0, 10, overview, 2},
		{"negative height", 10, -1, overview, 2},
		{"zero viewport", 10, 10, mandel.Viewport{}, 2},
		{"zero exponent", 10, 10, overview, 0},
		{"nan exponent", 10, 10, overview, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ComputeIterations(tt.v, tt.w, tt.h, tt.p)
			if !errors.Is(err, mandel.ErrConfig) {
				t.Fatalf("got %v, want ErrConfig", err)
			}
		})
	}
}

func TestIterationsInRange(t *testing.T) {
	for _, scalar := range []bool{false, true} {
		for _, p := range []float64{2, 2.5, 3} {
			t.Run(fmt.Sprintf("scalar=%v/p=%g", scalar, p), func(t *testing.T) {
				e := newTestEngine(t, Options{Lanes: 8, Scalar: scalar})
				buf, err := e.ComputeIterations(overview, 64, 48, p)
				if err != nil {
					t.Fatal(err)
				}
				if len(buf) != 64*48 {
					t.Fatalf("len %d, want %d", len(buf), 64*48)
				}
				for i, it := range buf {
					if it < 0 || int(it) > overview.MaxIterations {
						t.Fatalf("pixel %d: count %d out of [0,%d]", i, it, overview.MaxIterations)
					}
				}
			})
		}
	}
}

func TestKnownPoints(t *testing.T) {
	origin := func(p mandel.Precision) mandel.Viewport { return mandel.MustViewport(0, 0, 1, 100, p) }
	three := func(p mandel.Precision) mandel.Viewport { return mandel.MustViewport(3, 0, 1, 100, p) }

	for _, prec := range []mandel.Precision{mandel.Narrow, mandel.Wide} {
		for _, scalar := range []bool{false, true} {
			for _, p := range []float64{2, 3.5} {
				name := fmt.Sprintf("%s/scalar=%v/p=%g", prec, scalar, p)
				t.Run(name, func(t *testing.T) {
					e := newTestEngine(t, Options{Lanes: 4, Scalar: scalar})

					// pixel 0,0 sits exactly on the viewport origin
					buf, err := e.ComputeIterations(origin(prec), 8, 8, p)
					if err != nil {
						t.Fatal(err)
					}
					if buf[0] != 100 {
						t.Errorf("c=0: got %d, want 100", buf[0])
					}

					buf, err = e.ComputeIterations(three(prec), 8, 8, p)
					if err != nil {
						t.Fatal(err)
					}
					if buf[0] != 0 {
						t.Errorf("c=3: got %d, want 0", buf[0])
					}
				})
			}
		}
	}
}

func TestOverviewScenario(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	fb, err := NewFrameBuffers(100, 75)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Compute(fb, overview, 2); err != nil {
		t.Fatal(err)
	}
	pal, err := NewPalette([]RGB{{0, 0, 0}, {255, 255, 255}}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Colorize(fb, pal); err != nil {
		t.Fatal(err)
	}

	if got := fb.At(50, 37); got != 50 {
		t.Errorf("center count %d, want 50", got)
	}
	if got := fb.ColorAt(50, 37); got != Interior {
		t.Errorf("center color %v, want interior", got)
	}

	// right edge is 1.96+0.54i, outside radius 2 right away
	if got := fb.At(99, 37); got > 2 {
		t.Errorf("edge count %d, want escape within 2", got)
	}
	if got := fb.ColorAt(99, 37); got.R > 51 || got.G > 51 || got.B > 51 {
		t.Errorf("edge color %v, want near palette[0]", got)
	}
}

// mismatches counts differing cells.
func mismatches(a, b []int32) int {
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}

func TestScalarMatchesVector(t *testing.T) {
	overview := func(p mandel.Precision) mandel.Viewport {
		return mandel.MustViewport(-2, -1.25, 4, 60, p)
	}
	deep, err := mandel.SpiralMinibrot.Viewport(0.75, 400, mandel.Wide)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		v        mandel.Viewport
		p        float64
		maxShare float64
	}{
		{"square/wide", overview(mandel.Wide), 2, 0},
		{"square/narrow", overview(mandel.Narrow), 2, 0},
		{"square/deep", deep, 2, 0},
		{"general/wide", overview(mandel.Wide), 3, 0},
		{"general/deep", deep, 3, 0},
		{"general/deep fractional", deep, 2.5, 0},
		// float32 vector lanes use the polynomial log/exp/atan2/sincos,
		// whose error is a couple of float32 ulps per step
		{"general/narrow", overview(mandel.Narrow), 2.5, 0.03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scalar := newTestEngine(t, Options{Lanes: 16, Scalar: true})
			vector := newTestEngine(t, Options{Lanes: 16})

			a, err := scalar.ComputeIterations(tt.v, 120, 90, tt.p)
			if err != nil {
				t.Fatal(err)
			}
			b, err := vector.ComputeIterations(tt.v, 120, 90, tt.p)
			if err != nil {
				t.Fatal(err)
			}
			if n := mismatches(a, b); float64(n) > tt.maxShare*float64(len(a)) {
				t.Errorf("%d of %d pixels differ", n, len(a))
			}
		})
	}
}

func TestGeneralKernelMatchesSquare(t *testing.T) {
	v := mandel.MustViewport(-2, -1.25, 4, 60, mandel.Wide)
	tests := []struct {
		name     string
		scalar   bool
		narrow   bool
		maxShare float64
	}{
		// cmplx.Pow rounds differently from z*z by an ulp or two, which only
		// shows on orbits that linger near the boundary
		{"scalar/wide", true, false, 0.003},
		{"vector/wide", false, false, 0.003},
		{"scalar/narrow", true, true, 0.01},
		// float32 polynomial approximations
		{"vector/narrow", false, true, 0.03},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, Options{Lanes: 8, Scalar: tt.scalar})
			square := &FrameBuffers{Width: 120, Height: 90, Iter: make([]int32, 120*90)}
			general := &FrameBuffers{Width: 120, Height: 90, Iter: make([]int32, 120*90)}
			if tt.narrow {
				computeFrame[float32](e, square, v, KernelSquare, 2)
				computeFrame[float32](e, general, v, KernelGeneral, 2)
			} else {
				computeFrame[float64](e, square, v, KernelSquare, 2)
				computeFrame[float64](e, general, v, KernelGeneral, 2)
			}

			if n := mismatches(square.Iter, general.Iter); float64(n) > tt.maxShare*float64(len(square.Iter)) {
				t.Errorf("%d of %d pixels differ", n, len(square.Iter))
			}
		})
	}
}

// referenceCount iterates one point in plain complex128.
func referenceCount(c complex128, p float64, maxIter int) int32 {
	z := c
	for it := range maxIter {
		if !(float64(real(z)*real(z))+float64(imag(z)*imag(z)) <= escapeRadius2) {
			return int32(it)
		}
		z = cmplx.Pow(z, complex(p, 0)) + c
	}
	return int32(maxIter)
}

func TestWideGeneralKernelKeepsDoublePrecision(t *testing.T) {
	// pixel spacing here is far below float32 resolution
	v, err := mandel.SpiralMinibrot.Viewport(0.75, 300, mandel.Wide)
	if err != nil {
		t.Fatal(err)
	}
	const w, h = 16, 12
	e := newTestEngine(t, Options{Lanes: 8})
	got, err := e.ComputeIterations(v, w, h, 3)
	if err != nil {
		t.Fatal(err)
	}

	m := newMapping[float64](v.OriginX, v.OriginY, v.ExtentX, w, h)
	for y := range h {
		for x := range w {
			want := referenceCount(complex(m.re(x), m.im(y)), 3, v.MaxIterations)
			if got[y*w+x] != want {
				t.Errorf("pixel %d,%d: count %d, want %d", x, y, got[y*w+x], want)
			}
		}
	}
}

func TestOverflowedLanesEscape(t *testing.T) {
	// 1.9^200 overflows float32; the lane must escape at step 1 instead of reading as interior
	for _, prec := range []mandel.Precision{mandel.Narrow, mandel.Wide} {
		for _, scalar := range []bool{true, false} {
			for _, p := range []float64{200, 2000} {
				t.Run(fmt.Sprintf("%s/scalar=%v/p=%g", prec, scalar, p), func(t *testing.T) {
					e := newTestEngine(t, Options{Lanes: 4, Scalar: scalar})
					v := mandel.MustViewport(1.9, 0, 0.001, 50, prec)
					iters, err := e.ComputeIterations(v, 1, 1, p)
					if err != nil {
						t.Fatal(err)
					}
					if iters[0] != 1 {
						t.Errorf("count %d, want 1", iters[0])
					}
				})
			}
		}
	}
}

func TestLaneWidthDoesNotChangeResults(t *testing.T) {
	// 45 rows leave a ragged last group for every width but 1 and 5
	v := mandel.MustViewport(-2, -1.25, 4, 40, mandel.Wide)
	ref := newTestEngine(t, Options{Lanes: 1, Scalar: true})
	want, err := ref.ComputeIterations(v, 30, 45, 2)
	if err != nil {
		t.Fatal(err)
	}

	for _, lanes := range []int{3, 7, 16, 64} {
		t.Run(fmt.Sprint(lanes), func(t *testing.T) {
			e := newTestEngine(t, Options{Lanes: lanes, Scalar: true})
			got, err := e.ComputeIterations(v, 30, 45, 2)
			if err != nil {
				t.Fatal(err)
			}
			if n := mismatches(want, got); n != 0 {
				t.Errorf("%d pixels differ from single-lane run", n)
			}
		})
	}
}

func TestComputeReusesBuffers(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	fb, err := NewFrameBuffers(40, 30)
	if err != nil {
		t.Fatal(err)
	}
	iter, rgb := &fb.Iter[0], &fb.RGB[0]

	for _, v := range []mandel.Viewport{overview, mandel.MustViewport(-0.8, 1, 1, 70, mandel.Narrow)} {
		if err := e.Compute(fb, v, 2); err != nil {
			t.Fatal(err)
		}
		if err := e.Colorize(fb, DefaultPalette()); err != nil {
			t.Fatal(err)
		}
		if fb.MaxIter != v.MaxIterations {
			t.Errorf("MaxIter %d, want %d", fb.MaxIter, v.MaxIterations)
		}
	}
	if &fb.Iter[0] != iter || &fb.RGB[0] != rgb {
		t.Error("frame buffers were reallocated")
	}
}

func TestClosedEngineStillComputes(t *testing.T) {
	e, err := New(Options{Lanes: 8, Workers: 4})
	if err != nil {
		t.Fatal(err)
	}
	want, err := e.ComputeIterations(overview, 32, 24, 2)
	if err != nil {
		t.Fatal(err)
	}
	e.Close()
	got, err := e.ComputeIterations(overview, 32, 24, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n := mismatches(want, got); n != 0 {
		t.Errorf("%d pixels differ after Close", n)
	}
}

func TestSelectKernel(t *testing.T) {
	tests := []struct {
		p    float64
		want Kernel
	}{
		{2, KernelSquare},
		{2.0000001, KernelGeneral},
		{3, KernelGeneral},
		{9.5, KernelGeneral},
	}
	for _, tt := range tests {
		if got := SelectKernel(tt.p); got != tt.want {
			t.Errorf("SelectKernel(%g) = %s, want %s", tt.p, got, tt.want)
		}
	}
}

func TestMappingDirection(t *testing.T) {
	m := newMapping[float64](-2, -1.25, 4, 100, 75)
	if got := m.re(0); got != -2 {
		t.Errorf("re(0) = %g, want -2", got)
	}
	if got, want := m.im(0), 0.75*-1.25; got != want {
		t.Errorf("im(0) = %g, want %g", got, want)
	}
	if m.im(10) <= m.im(9) {
		t.Error("imaginary part must grow with the row index")
	}
}

func BenchmarkCompute(b *testing.B) {
	for _, scalar := range []bool{false, true} {
		b.Run(fmt.Sprintf("scalar=%v", scalar), func(b *testing.B) {
			e, err := New(Options{Lanes: DefaultLanes, Scalar: scalar})
			if err != nil {
				b.Fatal(err)
			}
			defer e.Close()
			fb, _ := NewFrameBuffers(320, 240)
			for b.Loop() {
				_ = e.Compute(fb, overview, 2)
			}
		})
	}
}
