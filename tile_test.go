package mandel

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestTileRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 6))
	for y := range 6 {
		for x := range 10 {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), uint8(x * y), 0xff})
		}
	}

	r := image.Rect(3, 2, 7, 5)
	msg, err := EncodeTile(img, r)
	if err != nil {
		t.Fatal(err)
	}
	if want := TileHeaderSize + 4*3*4; len(msg) != want {
		t.Fatalf("message length %d, want %d", len(msg), want)
	}

	tile, err := DecodeTile(bytes.NewReader(msg))
	if err != nil {
		t.Fatal(err)
	}
	if tile.Rect != r {
		t.Fatalf("tile rect %v, want %v", tile.Rect, r)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if got, want := tile.RGBAAt(x, y), img.RGBAAt(x, y); got != want {
				t.Errorf("pixel %d,%d: got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestEncodeTileClips(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	msg, err := EncodeTile(img, image.Rect(2, 2, 10, 10))
	if err != nil {
		t.Fatal(err)
	}
	tile, err := DecodeTile(bytes.NewReader(msg))
	if err != nil {
		t.Fatal(err)
	}
	if want := image.Rect(2, 2, 4, 4); tile.Rect != want {
		t.Errorf("tile rect %v, want %v", tile.Rect, want)
	}

	if _, err := EncodeTile(img, image.Rect(5, 5, 8, 8)); err == nil {
		t.Error("tile outside the image encoded")
	}
}

func TestDecodeTileTruncated(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	msg, err := EncodeTile(img, img.Rect)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeTile(bytes.NewReader(msg[:len(msg)-1])); err == nil {
		t.Error("truncated tile decoded")
	}
}
