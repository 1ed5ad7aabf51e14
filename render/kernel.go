package render

import (
	"fmt"
	"math/cmplx"

	"github.com/ajroetker/go-highway/hwy"
	hwymath "github.com/ajroetker/go-highway/hwy/contrib/math"
)

// Kernel is the per-lane update rule.
type Kernel uint8

const (
	// KernelGeneral computes z^p + c for any positive real p.
	KernelGeneral Kernel = iota
	// KernelSquare computes z^2 + c from carried squares, without a power routine.
	KernelSquare
)

func (k Kernel) String() string {
	switch k {
	case KernelGeneral:
		return "general"
	case KernelSquare:
		return "square"
	default:
		return fmt.Sprintf("kernel(%d)", uint8(k))
	}
}

// SelectKernel picks the kernel for a frame rendered with exponent p.
func SelectKernel(p float64) Kernel {
	if p == 2 {
		return KernelSquare
	}
	return KernelGeneral
}

// stepFunc advances every running lane of b by one iteration.
// Lanes failing |z|^2 <= 4 are marked escaped at it and left untouched. The test is
// written that way round so an overflowed lane (NaN) escapes instead of running forever.
type stepFunc[T hwy.Floats] func(b *laneBatch[T], it int32, p T)

func stepper[T hwy.Floats](k Kernel, scalar bool) stepFunc[T] {
	switch {
	case k == KernelSquare && scalar:
		return stepSquareScalar[T]
	case k == KernelSquare:
		return stepSquareVector[T]
	case scalar:
		return stepGeneralScalar[T]
	case isWide[T]():
		return stepGeneralWide[T]
	default:
		return stepGeneralVector[T]
	}
}

func isWide[T hwy.Floats]() bool {
	var zero T
	_, ok := any(zero).(float64)
	return ok
}

// escapes is the lane form of !(|z|^2 <= 4).
func escapes[T hwy.Floats](mag, four hwy.Vec[T]) hwy.Mask[T] {
	return hwy.MaskNot(hwy.LessEqual(mag, four))
}

func stepSquareScalar[T hwy.Floats](b *laneBatch[T], it int32, _ T) {
	for k := range b.n {
		if b.escaped[k] {
			continue
		}
		zr, zi := b.zr[k], b.zi[k]
		zr2, zi2 := b.zr2[k], b.zi2[k]
		if !(zr2+zi2 <= escapeRadius2) {
			b.escape(k, it)
			continue
		}
		// explicit conversions stop FMA contraction so lanes match the vector path
		zi = T(2*zr*zi) + b.ci[k]
		zr = T(zr2-zi2) + b.cr[k]
		b.zr[k], b.zi[k] = zr, zi
		b.zr2[k], b.zi2[k] = zr*zr, zi*zi
	}
}

func stepSquareVector[T hwy.Floats](b *laneBatch[T], it int32, _ T) {
	four := hwy.Set[T](escapeRadius2)
	two := hwy.Set[T](2)
	width := vectorWidth[T]()

	for off := 0; off < b.n; off += width {
		end := min(off+width, b.n)
		zr, zi := hwy.Load(b.zr[off:end]), hwy.Load(b.zi[off:end])
		zr2, zi2 := hwy.Load(b.zr2[off:end]), hwy.Load(b.zi2[off:end])

		out := escapes(hwy.Add(zr2, zi2), four)
		b.markEscaped(off, out, it)
		if out.AllTrue() {
			continue
		}

		nzi := hwy.Add(hwy.Mul(hwy.Mul(two, zr), zi), hwy.Load(b.ci[off:end]))
		nzr := hwy.Add(hwy.Sub(zr2, zi2), hwy.Load(b.cr[off:end]))

		// escaped lanes keep their last value, so they keep failing the test
		nzr = hwy.IfThenElse(out, zr, nzr)
		nzi = hwy.IfThenElse(out, zi, nzi)
		hwy.Store(nzr, b.zr[off:end])
		hwy.Store(nzi, b.zi[off:end])
		hwy.Store(hwy.IfThenElse(out, zr2, hwy.Mul(nzr, nzr)), b.zr2[off:end])
		hwy.Store(hwy.IfThenElse(out, zi2, hwy.Mul(nzi, nzi)), b.zi2[off:end])
	}
}

func stepGeneralScalar[T hwy.Floats](b *laneBatch[T], it int32, p T) {
	exp := complex(float64(p), 0)
	for k := range b.n {
		if b.escaped[k] {
			continue
		}
		zr, zi := b.zr[k], b.zi[k]
		if !(T(zr*zr)+T(zi*zi) <= escapeRadius2) {
			b.escape(k, it)
			continue
		}
		w := cmplx.Pow(complex(float64(zr), float64(zi)), exp)
		b.zr[k] = T(real(w)) + b.cr[k]
		b.zi[k] = T(imag(w)) + b.ci[k]
	}
}

// stepGeneralWide is the general kernel for float64 lanes. The escape test runs on
// vectors; the power goes through cmplx.Pow lane by lane, since the hwy polynomial
// helpers only carry float32 coefficients and would cap the precision at float32.
// It matches stepGeneralScalar bit for bit.
func stepGeneralWide[T hwy.Floats](b *laneBatch[T], it int32, p T) {
	n := b.n
	width := vectorWidth[T]()
	four := hwy.Set[T](escapeRadius2)

	for off := 0; off < n; off += width {
		end := min(off+width, n)
		zr, zi := hwy.Load(b.zr[off:end]), hwy.Load(b.zi[off:end])
		b.markEscaped(off, escapes(hwy.Add(hwy.Mul(zr, zr), hwy.Mul(zi, zi)), four), it)
	}
	if b.live == 0 {
		return
	}

	exp := complex(float64(p), 0)
	for k := range n {
		if b.escaped[k] {
			continue
		}
		w := cmplx.Pow(complex(float64(b.zr[k]), float64(b.zi[k])), exp)
		b.zr[k] = T(real(w)) + b.cr[k]
		b.zi[k] = T(imag(w)) + b.ci[k]
	}
}

// stepGeneralVector is the float32 general kernel. It computes z^p in polar form
// over the whole group:
// |z|^p = exp(p/2 * ln|z|^2), arg = p*atan2(zi, zr).
func stepGeneralVector[T hwy.Floats](b *laneBatch[T], it int32, p T) {
	n := b.n
	width := vectorWidth[T]()
	four := hwy.Set[T](escapeRadius2)
	halfP := hwy.Set[T](p / 2)
	vp := hwy.Set[T](p)

	for off := 0; off < n; off += width {
		end := min(off+width, n)
		zr, zi := hwy.Load(b.zr[off:end]), hwy.Load(b.zi[off:end])
		mag := hwy.Add(hwy.Mul(zr, zr), hwy.Mul(zi, zi))
		hwy.Store(mag, b.mag[off:end])
		b.markEscaped(off, escapes(mag, four), it)
	}
	if b.live == 0 {
		return
	}

	hwymath.BaseLogPoly(b.mag[:n], b.lnr[:n])
	hwymath.BaseAtan2Poly(b.zi[:n], b.zr[:n], b.theta[:n])
	for off := 0; off < n; off += width {
		end := min(off+width, n)
		hwy.Store(hwy.Mul(halfP, hwy.Load(b.lnr[off:end])), b.lnr[off:end])
		hwy.Store(hwy.Mul(vp, hwy.Load(b.theta[off:end])), b.theta[off:end])
	}
	hwymath.BaseExpPoly(b.lnr[:n], b.rp[:n])
	hwymath.BaseSinCosPoly(b.theta[:n], b.sin[:n], b.cos[:n])

	zero := hwy.Zero[T]()
	for off := 0; off < n; off += width {
		end := min(off+width, n)
		mag := hwy.Load(b.mag[off:end])
		cr, ci := hwy.Load(b.cr[off:end]), hwy.Load(b.ci[off:end])
		rp := hwy.Load(b.rp[off:end])

		nzr := hwy.Add(hwy.Mul(rp, hwy.Load(b.cos[off:end])), cr)
		nzi := hwy.Add(hwy.Mul(rp, hwy.Load(b.sin[off:end])), ci)

		// 0^p = 0 has no angle, the polar form would produce NaN
		origin := hwy.Equal(mag, zero)
		nzr = hwy.IfThenElse(origin, cr, nzr)
		nzi = hwy.IfThenElse(origin, ci, nzi)

		out := escapes(mag, four)
		hwy.Store(hwy.IfThenElse(out, hwy.Load(b.zr[off:end]), nzr), b.zr[off:end])
		hwy.Store(hwy.IfThenElse(out, hwy.Load(b.zi[off:end]), nzi), b.zi[off:end])
	}
}

// vectorWidth is the number of T lanes per hwy vector on this CPU.
func vectorWidth[T hwy.Floats]() int {
	return max(hwy.MaxLanes[T](), 1)
}
