//go:build js && wasm

// Command webclient is the browser viewer of cmd/server. Compiled to wasm, it reads the tiles
// the server streams over websocket and draws them on the page canvas as they arrive.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"syscall/js"

	mandel "github.com/marben/lanemandel"
)

func main() {
	logScreenf("Starting WASM web client...")

	loc := js.Global().Get("window").Get("location")
	host := loc.Get("host").String()
	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	websocketUrl := proto + "://" + host + "/ws"

	logScreenf("Connecting to %s...", websocketUrl)
	ws := NewWSReadCloser(js.Global().Get("WebSocket").New(websocketUrl))
	defer ws.Close()

	if err := tilesLoop(ws, newCanvas("myCanvas")); err != nil {
		logFatalf("tilesLoop: %v", err)
	}
	logScreenf("Server went away, reload to reconnect.")
}

// tilesLoop draws tiles from r until the stream ends.
// The first tile is the server's whole canvas, every later one a revealed box.
func tilesLoop(r io.Reader, c *canvas) error {
	received := 0
	for {
		tile, err := mandel.DecodeTile(r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode tile %d: %w", received, err)
		}

		if c.fit(tile.Rect) {
			hudSetFrameSize(c.width, c.height)
		}
		c.drawTile(tile)

		received++
		hudSetTilesReceived(received)
	}
}

// logScreenf appends a formatted message to the log element in the DOM.
func logScreenf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)

	doc := js.Global().Get("document")
	logElem := doc.Call("getElementById", "log")
	logElem.Set("textContent", logElem.Get("textContent").String()+msg+"\n")
}

// logFatalf logs a fatal error to the log window and terminates the program.
func logFatalf(format string, a ...any) {
	logScreenf("FATAL: "+format, a...)
	log.Fatalf(format, a...)
}

func hudSetTilesReceived(n int) {
	js.Global().Get("document").Call("getElementById", "tilesReceived").Set("textContent", n)
}

func hudSetFrameSize(w, h int) {
	js.Global().Get("document").Call("getElementById", "frameSize").Set("textContent", fmt.Sprintf("%dx%d", w, h))
}
