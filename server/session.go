package server

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/websocket"
)

const writeTimeout = 10 * time.Second

// wsSession is a game.Session over an x/net websocket. Payloads wait in a
// bounded outbox drained by writeLoop; when the outbox is full the oldest
// payload is discarded.
type wsSession struct {
	id      string
	conn    *websocket.Conn
	outbox  chan []byte
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
	logger  *slog.Logger
}

func newWSSession(conn *websocket.Conn, id string, queueSize int, logger *slog.Logger) *wsSession {
	if queueSize < 1 {
		queueSize = 1
	}
	return &wsSession{
		id:     id,
		conn:   conn,
		outbox: make(chan []byte, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (s *wsSession) ID() string { return s.id }

// Send never blocks. It reports false when an older payload was discarded.
func (s *wsSession) Send(payload []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	kept := true
	for {
		select {
		case s.outbox <- payload:
			return kept
		default:
		}
		select {
		case <-s.outbox:
			kept = false
			s.dropped.Add(1)
		default:
		}
	}
}

// Close stops the writer and closes the connection.
func (s *wsSession) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// Dropped returns how many payloads were discarded.
func (s *wsSession) Dropped() uint64 { return s.dropped.Load() }

func (s *wsSession) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.outbox:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := websocket.Message.Send(s.conn, string(payload)); err != nil {
				s.logger.Debug("write failed", "err", err)
				_ = s.Close()
				return
			}
		}
	}
}
