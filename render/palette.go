package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	mandel "github.com/marben/lanemandel"
)

type RGB struct {
	R, G, B uint8
}

// Interior is the color of points that never escape.
var Interior = RGB{}

// Palette is a cyclic gradient. Each BandWidth iterations move one entry along Colors.
type Palette struct {
	Colors    []RGB
	BandWidth float64
}

func NewPalette(colors []RGB, bandWidth float64) (Palette, error) {
	if len(colors) == 0 {
		return Palette{}, mandel.NewConfigError("palette.colors", 0, "must not be empty")
	}
	if bandWidth <= 0 || math.IsNaN(bandWidth) || math.IsInf(bandWidth, 0) {
		return Palette{}, mandel.NewConfigError("palette.band_width", bandWidth, "must be positive")
	}
	return Palette{
		Colors:    append([]RGB(nil), colors...),
		BandWidth: bandWidth,
	}, nil
}

// ParsePalette builds a palette from "#rrggbb" entries.
func ParsePalette(hex []string, bandWidth float64) (Palette, error) {
	colors := make([]RGB, 0, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return Palette{}, fmt.Errorf("palette entry %d: %w", i, mandel.NewConfigError("palette.colors", h, err.Error()))
		}
		r, g, b := c.RGB255()
		colors = append(colors, RGB{R: r, G: g, B: b})
	}
	return NewPalette(colors, bandWidth)
}

// ParsePaletteList parses a comma separated list of "#rrggbb" colors, as taken from a flag.
// An empty list keeps the DefaultPalette colors with the given band width.
func ParsePaletteList(list string, bandWidth float64) (Palette, error) {
	if strings.TrimSpace(list) == "" {
		return NewPalette(DefaultPalette().Colors, bandWidth)
	}
	hex := strings.Split(list, ",")
	for i := range hex {
		hex[i] = strings.TrimSpace(hex[i])
	}
	return ParsePalette(hex, bandWidth)
}

// DefaultPalette is black through violet and magenta to blue, 15 iterations per band.
func DefaultPalette() Palette {
	return Palette{
		Colors: []RGB{
			{0, 0, 0},
			{50, 0, 100},
			{255, 0, 255},
			{127, 0, 64},
			{0, 100, 255},
		},
		BandWidth: 15,
	}
}

// MapToColor converts an escape count to a color.
// iter == maxIter is the interior. Other counts interpolate linearly between the two
// palette entries around iter/BandWidth, so whole bands land exactly on an entry.
func MapToColor(iter, maxIter int, p Palette) RGB {
	n := len(p.Colors)
	if iter == maxIter || n == 0 {
		return Interior
	}

	level := float64(iter) / p.BandWidth
	fl := math.Floor(level)
	frac := level - fl
	lo := p.Colors[wrap(int(fl), n)]
	hi := p.Colors[wrap(int(math.Ceil(level)), n)]

	return RGB{
		R: lerp(lo.R, hi.R, frac),
		G: lerp(lo.G, hi.G, frac),
		B: lerp(lo.B, hi.B, frac),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
