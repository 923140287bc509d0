package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gwillem/hexapod/pkg/command"
)

// WebSocketListener accepts clients on an HTTP endpoint. Each WebSocket
// message is one command message.
type WebSocketListener struct {
	addr     string
	path     string
	session  session
	upgrader websocket.Upgrader

	mu     sync.Mutex
	srv    *http.Server
	closed bool
	conns  map[*websocket.Conn]struct{}
	wg     sync.WaitGroup
}

// NewWebSocketListener creates a listener for cfg.Address and cfg.Path.
func NewWebSocketListener(cfg Config) *WebSocketListener {
	path := cfg.Path
	if path == "" {
		path = "/ws"
	}
	return &WebSocketListener{
		addr:    cfg.Address,
		path:    path,
		session: newSession(cfg, "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize: command.MaxMessageSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // controllers connect from arbitrary origins on the LAN
			},
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP handler serving the WebSocket endpoint.
func (l *WebSocketListener) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(l.path, l.handleWebSocket)
	return mux
}

// Serve runs the HTTP server until ctx is cancelled or Close is called.
func (l *WebSocketListener) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return &TransportError{Op: "listen", Err: err}
	}

	srv := &http.Server{
		Handler:           l.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	l.mu.Lock()
	l.srv = srv
	l.mu.Unlock()

	l.session.log.Info().Str("address", ln.Addr().String()).Str("path", l.path).Msg("listening")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()

	err = srv.Serve(ln)
	l.Close()
	l.wg.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return &TransportError{Op: "serve", Err: err}
}

// Close stops the HTTP server and closes every open WebSocket.
func (l *WebSocketListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	var err error
	if l.srv != nil {
		err = l.srv.Close()
	}
	for conn := range l.conns {
		conn.Close()
	}
	return err
}

func (l *WebSocketListener) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.session.log.Warn().Err(&TransportError{Op: "upgrade", Err: err}).Msg("upgrade failed")
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		conn.Close()
		return
	}
	l.conns[conn] = struct{}{}
	l.wg.Add(1)
	l.mu.Unlock()

	remote := conn.RemoteAddr().String()
	l.session.connected(remote)

	defer func() {
		conn.Close()
		l.mu.Lock()
		delete(l.conns, conn)
		l.mu.Unlock()
		l.session.disconnected(remote)
		l.wg.Done()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, net.ErrClosed) {
				l.session.log.Warn().Err(&TransportError{Op: "read", Err: err}).Str("remote", remote).Msg("dropping connection")
			}
			return
		}
		l.session.handle(remote, string(data))
	}
}
