//go:build js && wasm

package main

import (
	"io"
	"sync"
	"syscall/js"
)

// WSReadCloser reads the binary messages of a browser WebSocket as one byte stream.
// Message callbacks only enqueue, so the JS event loop is never blocked by a slow reader.
type WSReadCloser struct {
	ws js.Value

	mu     sync.Mutex // js callbacks run concurrently with Read
	queue  [][]byte
	closed bool
	err    error
	ready  chan struct{}

	// unread rest of the current message
	buf []byte

	funcs []js.Func
}

func NewWSReadCloser(ws js.Value) *WSReadCloser {
	c := &WSReadCloser{
		ws:    ws,
		ready: make(chan struct{}, 1),
	}

	ws.Set("binaryType", "arraybuffer")

	c.on("onmessage", func(args []js.Value) {
		jsDataToBytes(args[0].Get("data"), c.enqueue)
	})
	c.on("onerror", func([]js.Value) {
		c.finish(io.ErrUnexpectedEOF)
	})
	c.on("onclose", func([]js.Value) {
		logScreenf("websocket closed")
		c.finish(nil)
	})
	return c
}

func (c *WSReadCloser) on(event string, fn func(args []js.Value)) {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		fn(args)
		return nil
	})
	c.funcs = append(c.funcs, f)
	c.ws.Set(event, f)
}

func (c *WSReadCloser) enqueue(b []byte) {
	c.mu.Lock()
	if !c.closed {
		c.queue = append(c.queue, b)
	}
	c.mu.Unlock()
	c.signal()
}

// finish marks the stream closed. Queued messages stay readable.
func (c *WSReadCloser) finish(err error) {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.err = err
	}
	c.mu.Unlock()
	c.signal()
}

func (c *WSReadCloser) signal() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

func (c *WSReadCloser) Read(p []byte) (int, error) {
	for len(c.buf) == 0 {
		c.mu.Lock()
		if len(c.queue) > 0 {
			c.buf = c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.mu.Unlock()
			break
		}
		closed, err := c.closed, c.err
		c.mu.Unlock()

		if closed {
			if err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		<-c.ready
	}

	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}

func (c *WSReadCloser) Close() error {
	c.finish(nil)
	c.ws.Call("close")
	for _, f := range c.funcs {
		f.Release()
	}
	c.funcs = nil
	return nil
}

func jsDataToBytes(data js.Value, deliver func([]byte)) {
	if data.InstanceOf(js.Global().Get("ArrayBuffer")) {
		u8 := js.Global().Get("Uint8Array").New(data)
		b := make([]byte, u8.Get("byteLength").Int())
		js.CopyBytesToGo(b, u8)
		deliver(b)
		return
	}

	if data.InstanceOf(js.Global().Get("Uint8Array")) {
		b := make([]byte, data.Get("byteLength").Int())
		js.CopyBytesToGo(b, data)
		deliver(b)
		return
	}

	logScreenf("dropping websocket message of unsupported type %s", data.Type())
}
