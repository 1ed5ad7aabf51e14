// Package present drives a render engine frame after frame and reveals the results on a display.
package present

import (
	"image"

	mandel "github.com/marben/lanemandel"
)

// RevealSteps splits bounds into square boxes, numBoxes across, and groups them by
// anti-diagonal: step i holds every box (bx, by) with bx+by == i, right to left.
// Boxes on the right and bottom edges are clipped. The steps cover bounds exactly once.
func RevealSteps(bounds image.Rectangle, numBoxes int) ([][]image.Rectangle, error) {
	if numBoxes <= 0 {
		return nil, mandel.NewConfigError("boxes", numBoxes, "must be positive")
	}
	if bounds.Empty() {
		return nil, mandel.NewConfigError("bounds", bounds, "must not be empty")
	}

	side := max(bounds.Dx()/numBoxes, 1)
	cols := (bounds.Dx() + side - 1) / side
	rows := (bounds.Dy() + side - 1) / side

	steps := make([][]image.Rectangle, 0, cols+rows-1)
	for i := 0; i < cols+rows-1; i++ {
		var step []image.Rectangle
		for bx, by := min(i, cols-1), max(i-cols+1, 0); bx >= 0 && by < rows; bx, by = bx-1, by+1 {
			box := image.Rect(bx*side, by*side, (bx+1)*side, (by+1)*side).
				Add(bounds.Min).
				Intersect(bounds)
			step = append(step, box)
		}
		steps = append(steps, step)
	}
	return steps, nil
}
