// Package transport accepts command messages from network clients and pushes
// their tokens onto the command queue.
package transport

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gwillem/hexapod/pkg/command"
	"github.com/gwillem/hexapod/pkg/motion"
)

// Pusher receives parsed command tokens. *command.Queue implements it.
type Pusher interface {
	Push(token string)
}

// TransportError wraps a failed accept or read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Config holds configuration shared by the listeners.
type Config struct {
	Address string
	// Path is the HTTP path of the WebSocket endpoint. Ignored by TCP.
	Path                string
	Queue               Pusher
	StandbyOnDisconnect bool
	Logger              zerolog.Logger
}

// session turns raw client messages into queued tokens.
type session struct {
	queue               Pusher
	standbyOnDisconnect bool
	log                 zerolog.Logger
}

func newSession(cfg Config, component string) session {
	return session{
		queue:               cfg.Queue,
		standbyOnDisconnect: cfg.StandbyOnDisconnect,
		log:                 cfg.Logger.With().Str("component", component).Logger(),
	}
}

func (s session) handle(remote, msg string) {
	token, err := command.ParseToken(msg)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", remote).Msg("dropping message")
		return
	}
	s.queue.Push(token)
	s.log.Debug().Str("remote", remote).Str("token", token).Msg("command received")
}

func (s session) connected(remote string) {
	s.log.Info().Str("remote", remote).Msg("client connected")
}

func (s session) disconnected(remote string) {
	s.log.Info().Str("remote", remote).Bool("standby", s.standbyOnDisconnect).Msg("client disconnected")
	if s.standbyOnDisconnect {
		s.queue.Push(motion.CmdStandby)
	}
}
