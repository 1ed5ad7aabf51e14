package render

import (
	"github.com/ajroetker/go-highway/hwy"
)

// escapeRadius2 is the squared escape radius, |z| > 2.
const escapeRadius2 = 4

// laneBatch is the state of one lane group: up to len(cr) rows of a single column
// iterated together. A worker allocates one batch and resets it for every group.
type laneBatch[T hwy.Floats] struct {
	n    int // active lanes, less than cap on the ragged last group
	live int // active lanes not escaped yet

	cr, ci   []T
	zr, zi   []T
	zr2, zi2 []T
	escaped  []bool
	iters    []int32

	// scratch for the vector paths
	mag, lnr, theta, rp, sin, cos []T
}

func newLaneBatch[T hwy.Floats](lanes int) *laneBatch[T] {
	// one backing array keeps a batch in a couple of allocations
	buf := make([]T, 12*lanes)
	next := func() []T {
		s := buf[:lanes:lanes]
		buf = buf[lanes:]
		return s
	}
	return &laneBatch[T]{
		cr: next(), ci: next(),
		zr: next(), zi: next(),
		zr2: next(), zi2: next(),
		mag: next(), lnr: next(), theta: next(),
		rp: next(), sin: next(), cos: next(),
		escaped: make([]bool, lanes),
		iters:   make([]int32, lanes),
	}
}

// reset loads the group of n rows starting at y0 in the column with real part cre.
// The first step 0^p + c is already applied, each lane starts at z = c.
func (b *laneBatch[T]) reset(cre T, m mapping[T], y0, n int) {
	b.n = n
	b.live = n
	for k := range n {
		ci := m.im(y0 + k)
		b.cr[k], b.ci[k] = cre, ci
		b.zr[k], b.zi[k] = cre, ci
		b.zr2[k], b.zi2[k] = cre*cre, ci*ci
		b.escaped[k] = false
		b.iters[k] = 0
	}
}

func (b *laneBatch[T]) escape(k int, it int32) {
	b.escaped[k] = true
	b.iters[k] = it
	b.live--
}

// markEscaped records lanes off+i flagged in out that were still running.
func (b *laneBatch[T]) markEscaped(off int, out hwy.Mask[T], it int32) {
	for i := range out.NumLanes() {
		if out.GetBit(i) && !b.escaped[off+i] {
			b.escape(off+i, it)
		}
	}
}

// run iterates the group until every lane escaped or maxIter steps were taken.
func (b *laneBatch[T]) run(step stepFunc[T], p T, maxIter int) {
	for it := 0; it < maxIter && b.live > 0; it++ {
		step(b, int32(it), p)
	}
	for k := range b.n {
		if !b.escaped[k] {
			b.iters[k] = int32(maxIter)
		}
	}
}

// store writes the group's counts into column x of a row-major buffer.
func (b *laneBatch[T]) store(dst []int32, x, y0, width int) {
	for k := range b.n {
		dst[(y0+k)*width+x] = b.iters[k]
	}
}

// mapping converts pixel indices to plane coordinates in the lane precision.
// Row y maps straight to im(y): imaginary values grow downwards on screen.
type mapping[T hwy.Floats] struct {
	ox, oy, ext T
	w, h        T
	aspect      T
}

func newMapping[T hwy.Floats](ox, oy, ext float64, width, height int) mapping[T] {
	return mapping[T]{
		ox:     T(ox),
		oy:     T(oy),
		ext:    T(ext),
		w:      T(width),
		h:      T(height),
		aspect: T(height) / T(width),
	}
}

func (m mapping[T]) re(x int) T {
	return m.ox + m.ext*T(x)/m.w
}

func (m mapping[T]) im(y int) T {
	return m.aspect * (m.oy + m.ext*T(y)/m.h)
}
