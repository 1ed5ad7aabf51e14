//go:build js && wasm

package main

import (
	"image"
	"syscall/js"
)

// canvas is the page's drawing surface, grown to fit the frame the server streams.
type canvas struct {
	ctx           js.Value
	el            js.Value
	width, height int
}

func newCanvas(id string) *canvas {
	el := js.Global().Get("document").Call("getElementById", id)
	return &canvas{el: el, ctx: el.Call("getContext", "2d")}
}

// fit resizes the canvas when r reaches past it. Resizing clears it.
func (c *canvas) fit(r image.Rectangle) bool {
	if r.Max.X <= c.width && r.Max.Y <= c.height {
		return false
	}
	c.width, c.height = max(c.width, r.Max.X), max(c.height, r.Max.Y)
	c.el.Set("width", c.width)
	c.el.Set("height", c.height)
	c.ctx.Set("fillStyle", "#3a3a6e")
	c.ctx.Call("fillRect", 0, 0, c.width, c.height)
	return true
}

// drawTile puts the tile at its own position on the canvas.
func (c *canvas) drawTile(tile *image.RGBA) {
	c.fit(tile.Rect)

	jsData := js.Global().Get("Uint8ClampedArray").New(len(tile.Pix))
	js.CopyBytesToJS(jsData, tile.Pix)

	imageData := js.Global().Get("ImageData").New(jsData, tile.Rect.Dx(), tile.Rect.Dy())
	c.ctx.Call("putImageData", imageData, tile.Rect.Min.X, tile.Rect.Min.Y)
}
