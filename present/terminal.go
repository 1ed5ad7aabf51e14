package present

import (
	"context"
	"errors"
	"image"

	"github.com/gdamore/tcell/v2"
)

// ErrQuit is the cancellation cause set by Terminal.WatchQuit.
var ErrQuit = errors.New("quit requested")

// halfBlock draws the upper pixel in the foreground and the lower one in the background.
const halfBlock = '▀'

// Terminal shows frames on a tcell screen, two pixel rows per text row.
type Terminal struct {
	screen tcell.Screen
}

// NewTerminal wraps an initialized screen.
func NewTerminal(s tcell.Screen) *Terminal {
	return &Terminal{screen: s}
}

// Size implements mandel.Display.
func (t *Terminal) Size() (w, h int) {
	cols, rows := t.screen.Size()
	return cols, 2 * rows
}

// Blit implements mandel.Display.
func (t *Terminal) Blit(img *image.RGBA, r image.Rectangle) error {
	r = r.Intersect(img.Rect)
	for cy := r.Min.Y / 2; cy < (r.Max.Y+1)/2; cy++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			top := img.RGBAAt(x, 2*cy)
			bottom := img.RGBAAt(x, 2*cy+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			t.screen.SetContent(x, cy, halfBlock, nil, style)
		}
	}
	return nil
}

// Flush implements mandel.Display.
func (t *Terminal) Flush() error {
	t.screen.Show()
	return nil
}

// WatchQuit polls screen events on its own goroutine and cancels with ErrQuit on any key.
// It returns once the screen is finalized or ctx is done.
func (t *Terminal) WatchQuit(ctx context.Context, cancel context.CancelCauseFunc) {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				switch ev.(type) {
				case *tcell.EventKey:
					cancel(ErrQuit)
					return
				case *tcell.EventResize:
					t.screen.Sync()
				}
			}
		}
	}()
}
