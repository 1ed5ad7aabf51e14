package main

import (
	"context"
	"image/png"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	mandel "github.com/marben/lanemandel"
)

// webServer serves the static client, the websocket endpoint and the last finished frame.
// Viewers connecting on /ws are handed out by the returned listener.
func webServer(ctx context.Context, addr, static string, frames mandel.ImgProvider) (*WebsocketListener, *http.Server) {
	l := NewWSListener(ctx, addr+"/ws")
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", websocketHandler(l))
	mux.HandleFunc("/frame.png", frameHandler(frames))
	mux.Handle("/", http.FileServer(http.Dir(static)))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return l, srv
}

// websocketHandler upgrades the request and queues the connection for Accept.
func websocketHandler(l *WebsocketListener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // TODO: restrict to the served host once a -origin flag exists
		})
		if err != nil {
			log.Printf("websocket accept: %v", err)
			return
		}

		select {
		case l.ch <- c:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// frameHandler encodes the most recent fully revealed frame as PNG.
func frameHandler(frames mandel.ImgProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := frames.GetImage()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := png.Encode(w, &img); err != nil {
			log.Printf("frame.png: %v", err)
		}
	}
}

// WebsocketListener implements net.Listener on top of upgraded websocket connections.
// Each accepted conn carries binary messages.
type WebsocketListener struct {
	ch     chan *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	addr   wsAddr
}

func NewWSListener(ctx context.Context, addr string) *WebsocketListener {
	ctx, cancel := context.WithCancel(ctx)
	return &WebsocketListener{
		ch:     make(chan *websocket.Conn),
		ctx:    ctx,
		cancel: cancel,
		addr:   wsAddr{addr: addr},
	}
}

func (l *WebsocketListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return websocket.NetConn(l.ctx, c, websocket.MessageBinary), nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *WebsocketListener) Addr() net.Addr {
	return l.addr
}

// Close stops Accept and ends every connection handed out so far.
func (l *WebsocketListener) Close() error {
	l.cancel()
	return nil
}

type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string { return "ws" }

func (a wsAddr) String() string { return a.addr }
