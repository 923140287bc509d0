package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gwillem/hexapod/pkg/command"
)

// TCPListener accepts plain TCP clients. Each newline-terminated line is one
// command message; an unterminated last line is taken when the client
// disconnects.
type TCPListener struct {
	addr    string
	session session

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewTCPListener creates a listener for cfg.Address. Nothing is bound until
// Listen or Serve is called.
func NewTCPListener(cfg Config) *TCPListener {
	return &TCPListener{
		addr:    cfg.Address,
		session: newSession(cfg, "tcp"),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen binds the socket.
func (l *TCPListener) Listen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return &TransportError{Op: "listen", Err: err}
	}
	l.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (l *TCPListener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Serve accepts clients until ctx is cancelled or the listener is closed.
// Open connections are closed and drained before it returns.
func (l *TCPListener) Serve(ctx context.Context) error {
	if err := l.Listen(); err != nil {
		return err
	}
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()

	l.session.log.Info().Str("address", ln.Addr().String()).Msg("listening")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.Close()
				l.wg.Wait()
				return ctx.Err()
			}
			l.session.log.Warn().Err(&TransportError{Op: "accept", Err: err}).Msg("accept failed")
			time.Sleep(50 * time.Millisecond)
			continue
		}

		l.mu.Lock()
		l.conns[conn] = struct{}{}
		l.wg.Add(1)
		l.mu.Unlock()

		go l.serveConn(conn)
	}
}

// Close stops accepting and closes every open connection.
func (l *TCPListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	if l.ln != nil {
		if cerr := l.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}
	for conn := range l.conns {
		conn.Close()
	}
	return err
}

func (l *TCPListener) serveConn(conn net.Conn) {
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

	sc := command.NewMessageScanner(conn)
	for sc.Scan() {
		l.session.handle(remote, sc.Text())
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		l.session.log.Warn().Err(&TransportError{Op: "read", Err: err}).Str("remote", remote).Msg("dropping connection")
	}
}
