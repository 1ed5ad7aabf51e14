package main

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const captionPad = 4

// downscale resamples src to a w×h image.
func downscale(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src.Rect.Dx() == w && src.Rect.Dy() == h {
		copy(dst.Pix, src.Pix)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)
	return dst
}

// stampCaption writes text in the bottom left corner on a darkened strip.
func stampCaption(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}

	metrics := face.Metrics()
	textW := d.MeasureString(text).Ceil()
	lineH := (metrics.Ascent + metrics.Descent).Ceil()

	b := img.Rect
	strip := image.Rect(b.Min.X, b.Max.Y-lineH-2*captionPad, b.Min.X+textW+2*captionPad, b.Max.Y).Intersect(b)
	xdraw.Draw(img, strip, image.NewUniform(color.RGBA{0, 0, 0, 0xa0}), image.Point{}, xdraw.Over)

	d.Dot = fixed.Point26_6{
		X: fixed.I(b.Min.X + captionPad),
		Y: fixed.I(b.Max.Y-captionPad) - metrics.Descent,
	}
	d.DrawString(text)
}
