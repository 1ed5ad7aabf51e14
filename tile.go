package mandel

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
)

// TileHeaderSize is the length of the x, y, w, h header preceding tile pixels.
const TileHeaderSize = 8

// EncodeTile serializes the r part of img: big-endian uint16 x, y, w, h followed by
// w*h*4 RGBA bytes, row by row. r is clipped to img bounds.
func EncodeTile(img *image.RGBA, r image.Rectangle) ([]byte, error) {
	r = r.Intersect(img.Rect)
	if r.Empty() {
		return nil, fmt.Errorf("encode tile: empty rectangle")
	}
	if r.Max.X > 0xffff || r.Max.Y > 0xffff || r.Min.X < 0 || r.Min.Y < 0 {
		return nil, fmt.Errorf("encode tile: %v out of range", r)
	}

	w, h := r.Dx(), r.Dy()
	buf := make([]byte, TileHeaderSize+w*h*4)
	binary.BigEndian.PutUint16(buf[0:], uint16(r.Min.X))
	binary.BigEndian.PutUint16(buf[2:], uint16(r.Min.Y))
	binary.BigEndian.PutUint16(buf[4:], uint16(w))
	binary.BigEndian.PutUint16(buf[6:], uint16(h))

	dst := buf[TileHeaderSize:]
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		n := copy(dst, img.Pix[off:off+w*4])
		dst = dst[n:]
	}
	return buf, nil
}

// DecodeTile reads one tile written by EncodeTile.
// The returned image has global coordinates, its Rect is the tile rectangle.
func DecodeTile(r io.Reader) (*image.RGBA, error) {
	var hdr [TileHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	x := int(binary.BigEndian.Uint16(hdr[0:]))
	y := int(binary.BigEndian.Uint16(hdr[2:]))
	w := int(binary.BigEndian.Uint16(hdr[4:]))
	h := int(binary.BigEndian.Uint16(hdr[6:]))
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("decode tile: empty tile at %d,%d", x, y)
	}

	img := image.NewRGBA(image.Rect(x, y, x+w, y+h))
	if _, err := io.ReadFull(r, img.Pix); err != nil {
		return nil, fmt.Errorf("decode tile pixels: %w", err)
	}
	return img, nil
}
