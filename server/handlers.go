// File: server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/lguibr/bombgrid/game"
	"github.com/lguibr/bombgrid/render"
)

const maxFrameBytes = 4 << 10

// SubscribeHandler upgrades /subscribe to a websocket. The origin check
// replaces the library default so that clients without an Origin header
// are accepted when "*" is configured.
func (s *Server) SubscribeHandler() http.Handler {
	return websocket.Server{
		Handshake: func(_ *websocket.Config, r *http.Request) error {
			if origin := r.Header.Get("Origin"); !s.originAllowed(origin) {
				return fmt.Errorf("origin %q not allowed", origin)
			}
			return nil
		},
		Handler: s.HandleSubscribe,
	}
}

// HandleSubscribe runs one client session. The first frame must be a join;
// every later frame is decoded into an intent and queued.
func (s *Server) HandleSubscribe(ws *websocket.Conn) {
	ws.MaxPayloadBytes = maxFrameBytes
	remote := ws.Request().RemoteAddr

	var join game.ClientMessage
	if err := s.receive(ws, &join); err != nil || join.Type != game.ClientJoin {
		s.logger.Info("session refused", "remote", remote, "err", err, "type", join.Type)
		return
	}

	playerID := s.newID()
	logger := s.logger.With("session", playerID)
	session := newWSSession(ws, playerID, s.cfg.SessionSendQueue, logger)
	defer session.Close()
	go session.writeLoop()

	if err := s.queue.Push(game.JoinAction{PlayerID: playerID, Color: join.Color, Session: session}); err != nil {
		logger.Warn("join not queued", "err", err)
		return
	}
	logger.Info("session opened", "remote", remote)

	defer func() {
		if err := s.queue.Push(game.LeaveAction{PlayerID: playerID}); err != nil {
			logger.Error("leave not queued", "err", err)
		}
		logger.Info("session closed", "dropped", session.Dropped())
	}()
	s.readLoop(ws, playerID, logger)
}

// readLoop queues intents until the connection fails. Malformed and
// oversized frames are skipped.
func (s *Server) readLoop(ws *websocket.Conn, playerID string, logger *slog.Logger) {
	for {
		var msg game.ClientMessage
		err := s.receive(ws, &msg)
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case err == nil:
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			logger.Debug("malformed frame", "err", err)
			continue
		case errors.Is(err, websocket.ErrFrameTooLarge):
			// The next Receive discards the rest of the frame.
			logger.Debug("oversized frame", "err", err)
			continue
		default:
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Debug("read ended", "err", err)
			}
			return
		}

		action, ok := msg.Action(playerID)
		if !ok {
			continue
		}
		if err := s.queue.Push(action); err != nil {
			logger.Debug("intent dropped", "err", err)
		}
	}
}

// receive reads one text frame into v, refreshing the read deadline.
func (s *Server) receive(ws *websocket.Conn, v any) error {
	if s.cfg.ReadTimeout > 0 {
		if err := ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return err
		}
	}
	var data []byte
	if err := websocket.Message.Receive(ws, &data); err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// HandleHealth answers liveness probes.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// HandleGetState returns the latest published full state as JSON.
func (s *Server) HandleGetState(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshots.Load()
	if snap == nil {
		http.Error(w, "state not available", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.JSON)
}

// HandleGetStateText renders the latest state as plain text.
func (s *Server) HandleGetStateText(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Load()
	if snap == nil {
		http.Error(w, "state not available", http.StatusServiceUnavailable)
		return
	}
	opts := render.Options{Color: r.URL.Query().Get("color") == "1"}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "tick %d  players %d\n", snap.State.Tick, len(snap.State.Players))
	_, _ = io.WriteString(w, render.RenderState(snap.State, opts))
	_, _ = io.WriteString(w, render.RenderScores(snap.State.Players, snap.State.Scores))
}
