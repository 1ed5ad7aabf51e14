package main

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log"
	"net"
	"sync"
	"time"

	mandel "github.com/marben/lanemandel"
)

// writeTimeout bounds a single tile write to a viewer.
const writeTimeout = 5 * time.Second

// viewerQueue is how many tiles a viewer may lag behind before it is dropped.
const viewerQueue = 256

var (
	errNoFrame    = errors.New("no frame revealed yet")
	errSlowViewer = errors.New("viewer fell behind")
)

// viewer owns a connection and the queue its writer goroutine drains.
type viewer struct {
	conn net.Conn
	out  chan []byte
}

// hub is the display the driver reveals on. Every blitted box is queued as one tile to all
// viewers and drawn onto a canvas that new viewers receive when they join.
type hub struct {
	m       sync.Mutex
	canvas  *image.RGBA
	viewers map[net.Conn]*viewer

	totalPixels    int
	revealedPixels int
	frames         int
	last           *image.RGBA
}

func newHub(w, h int) *hub {
	return &hub{
		canvas:      image.NewRGBA(image.Rect(0, 0, w, h)),
		viewers:     make(map[net.Conn]*viewer),
		totalPixels: w * h,
	}
}

// Size implements mandel.Display.
func (h *hub) Size() (int, int) {
	return h.canvas.Rect.Dx(), h.canvas.Rect.Dy()
}

// Blit implements mandel.Display. It never waits on the network:
// a viewer whose queue is full is dropped.
func (h *hub) Blit(img *image.RGBA, r image.Rectangle) error {
	msg, err := mandel.EncodeTile(img, r)
	if err != nil {
		return fmt.Errorf("encode tile: %w", err)
	}

	h.m.Lock()
	defer h.m.Unlock()

	r = r.Intersect(h.canvas.Rect)
	draw.Draw(h.canvas, r, img, r.Min, draw.Src)
	h.revealedPixels += r.Dx() * r.Dy()
	if h.revealedPixels >= h.totalPixels {
		h.frameRevealed()
	}

	for c, v := range h.viewers {
		select {
		case v.out <- msg:
		default:
			h.dropLocked(c, errSlowViewer)
		}
	}
	return nil
}

// Flush implements mandel.Display. Tiles are queued as they are blitted.
func (h *hub) Flush() error {
	return nil
}

// frameRevealed snapshots the canvas once every pixel of the frame has been blitted.
// Must be called with h.m held.
func (h *hub) frameRevealed() {
	if h.last == nil {
		h.last = image.NewRGBA(h.canvas.Rect)
	}
	copy(h.last.Pix, h.canvas.Pix)
	h.revealedPixels = 0
	h.frames++
	log.Printf("frame %d revealed to %d viewers", h.frames, len(h.viewers))
}

// GetImage implements mandel.ImgProvider with the last fully revealed frame.
func (h *hub) GetImage() (image.RGBA, error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.last == nil {
		return image.RGBA{}, errNoFrame
	}
	img := *h.last
	img.Pix = append([]byte(nil), h.last.Pix...)
	return img, nil
}

// serve adds every connection accepted on l as a viewer until l is closed.
func (h *hub) serve(l net.Listener) error {
	for {
		c, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if err := h.join(c); err != nil {
			log.Printf("viewer %s: %v", c.RemoteAddr(), err)
		}
	}
}

// join queues the current canvas for c and subscribes it to further tiles.
// The canvas goes first in the queue, so later tiles always land on top of it.
// Viewers never send anything, reading only notices when they leave.
func (h *hub) join(c net.Conn) error {
	v := &viewer{conn: c, out: make(chan []byte, viewerQueue)}

	h.m.Lock()
	msg, err := mandel.EncodeTile(h.canvas, h.canvas.Rect)
	if err != nil {
		h.m.Unlock()
		c.Close()
		return fmt.Errorf("encode canvas: %w", err)
	}
	v.out <- msg
	h.viewers[c] = v
	n := len(h.viewers)
	h.m.Unlock()

	log.Printf("viewers: %d", n)
	go h.write(v)
	go func() {
		_, err := io.Copy(io.Discard, c)
		h.drop(c, err)
	}()
	return nil
}

// write sends queued tiles until the viewer is dropped.
func (h *hub) write(v *viewer) {
	for msg := range v.out {
		if err := send(v.conn, msg); err != nil {
			h.drop(v.conn, err)
			return
		}
	}
}

func (h *hub) drop(c net.Conn, err error) {
	h.m.Lock()
	defer h.m.Unlock()
	h.dropLocked(c, err)
}

func (h *hub) dropLocked(c net.Conn, err error) {
	v, ok := h.viewers[c]
	if !ok {
		return
	}
	delete(h.viewers, c)
	close(v.out)
	c.Close()
	if err == nil {
		err = io.EOF
	}
	log.Printf("viewer %s left (%v), viewers: %d", c.RemoteAddr(), err, len(h.viewers))
}

func (h *hub) viewerCount() int {
	h.m.Lock()
	defer h.m.Unlock()
	return len(h.viewers)
}

func send(c net.Conn, msg []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	_, err := c.Write(msg)
	return err
}

var (
	_ mandel.Display     = (*hub)(nil)
	_ mandel.ImgProvider = (*hub)(nil)
)
