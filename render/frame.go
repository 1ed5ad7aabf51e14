package render

import (
	"fmt"
	"image"

	mandel "github.com/marben/lanemandel"
)

// FrameBuffers holds one frame: escape counts and the RGB pixels derived from them.
// Both are row-major. They are allocated once and overwritten by every frame.
type FrameBuffers struct {
	Width, Height int
	// MaxIter is the sentinel of the last computed frame.
	MaxIter int
	// Iter has one count per pixel.
	Iter []int32
	// RGB has 3 bytes per pixel.
	RGB []byte
}

func NewFrameBuffers(width, height int) (*FrameBuffers, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return &FrameBuffers{
		Width:  width,
		Height: height,
		Iter:   make([]int32, width*height),
		RGB:    make([]byte, 3*width*height),
	}, nil
}

// At returns the count at pixel x, y.
func (fb *FrameBuffers) At(x, y int) int32 {
	return fb.Iter[y*fb.Width+x]
}

// ColorAt returns the colorized pixel x, y.
func (fb *FrameBuffers) ColorAt(x, y int) RGB {
	i := 3 * (y*fb.Width + x)
	return RGB{R: fb.RGB[i], G: fb.RGB[i+1], B: fb.RGB[i+2]}
}

// Colorize maps every count through pal into RGB on the calling goroutine.
func (fb *FrameBuffers) Colorize(pal Palette) error {
	if err := fb.checkRGB(); err != nil {
		return err
	}
	fb.colorizeRows(pal, 0, fb.Height)
	return nil
}

func (fb *FrameBuffers) colorizeRows(pal Palette, y0, y1 int) {
	for i := y0 * fb.Width; i < y1*fb.Width; i++ {
		c := MapToColor(int(fb.Iter[i]), fb.MaxIter, pal)
		fb.RGB[3*i], fb.RGB[3*i+1], fb.RGB[3*i+2] = c.R, c.G, c.B
	}
}

func (fb *FrameBuffers) checkRGB() error {
	if fb == nil || len(fb.Iter) != fb.Width*fb.Height || len(fb.RGB) != 3*fb.Width*fb.Height {
		return fmt.Errorf("colorize: frame buffers not allocated")
	}
	if fb.MaxIter <= 0 {
		return mandel.NewConfigError("max_iterations", fb.MaxIter, "frame was not computed")
	}
	return nil
}

// RGBA copies the RGB buffer into dst, allocating it when nil or of a different size.
func (fb *FrameBuffers) RGBA(dst *image.RGBA) *image.RGBA {
	r := image.Rect(0, 0, fb.Width, fb.Height)
	if dst == nil || dst.Rect != r {
		dst = image.NewRGBA(r)
	}
	for y := range fb.Height {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+4*fb.Width]
		src := fb.RGB[3*y*fb.Width : 3*(y+1)*fb.Width]
		for x := range fb.Width {
			row[4*x] = src[3*x]
			row[4*x+1] = src[3*x+1]
			row[4*x+2] = src[3*x+2]
			row[4*x+3] = 0xff
		}
	}
	return dst
}
