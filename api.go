package mandel

import (
	"image"
)

// ImgProvider returns the most recently completed frame.
type ImgProvider interface {
	GetImage() (image.RGBA, error)
}

// Display is the surface a finished frame is revealed on.
// Blit copies r of img onto the surface, Flush makes the blitted boxes visible.
type Display interface {
	Size() (w, h int)
	Blit(img *image.RGBA, r image.Rectangle) error
	Flush() error
}
