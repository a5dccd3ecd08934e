package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lguibr/bombgrid/game"
)

const (
	writeWait   = 10 * time.Second
	maxReadSize = 1 << 20
	sendBuffer  = 256
)

// client is one websocket connection and the view it maintains.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger *slog.Logger

	mu   sync.Mutex
	view game.View
}

func dial(ctx context.Context, url, origin string, logger *slog.Logger) (*client, error) {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxReadSize)
	return &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}, nil
}

// queue hands msg to the writer. A full buffer drops msg.
func (c *client) queue(msg game.ClientMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.logger.Debug("send buffer full")
	}
}

func (c *client) join(color string) { c.queue(game.ClientMessage{Type: game.ClientJoin, Color: color}) }

func (c *client) move(dx, dy int) {
	c.queue(game.ClientMessage{Type: game.ClientMove, DX: &dx, DY: &dy})
}

func (c *client) bomb() { c.queue(game.ClientMessage{Type: game.ClientBomb}) }

// readPump folds every frame into the view until the connection fails.
func (c *client) readPump() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("connection lost", "err", err)
			}
			return
		}
		c.mu.Lock()
		err = c.view.Apply(data)
		c.mu.Unlock()
		if err != nil {
			c.logger.Debug("bad frame", "err", err)
		}
	}
}

// writePump is the only writer on the connection.
func (c *client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", "err", err)
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *client) close() {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	_ = c.conn.Close()
}

// snapshot returns a copy of the current view.
func (c *client) snapshot() *game.InitMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Grid == nil {
		return nil
	}
	state := c.view.State()
	grid := make([][]game.Cell, len(state.Grid))
	for y, row := range state.Grid {
		grid[y] = append([]game.Cell(nil), row...)
	}
	state.Grid = grid
	scores := make(map[string]game.Score, len(state.Scores))
	for id, s := range state.Scores {
		scores[id] = s
	}
	state.Scores = scores
	return state
}

var steps = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// decide picks the bot's next intent from its view: drop a bomb now and then
// when next to a crate, otherwise step onto a random walkable tile.
func decide(view *game.View, rng *rand.Rand, bombChance float64) (dx, dy int, bomb, ok bool) {
	self, found := view.Self()
	if !found || !self.Alive {
		return 0, 0, false, false
	}
	var open [][2]int
	nearCrate := false
	for _, d := range steps {
		cell := view.At(self.X+d[0], self.Y+d[1])
		if cell == game.Crate {
			nearCrate = true
		}
		if !cell.Blocks() && cell != game.Explosion {
			open = append(open, d)
		}
	}
	if nearCrate && view.At(self.X, self.Y) == game.Empty && rng.Float64() < bombChance {
		return 0, 0, true, true
	}
	if len(open) == 0 {
		return 0, 0, false, false
	}
	d := open[rng.IntN(len(open))]
	return d[0], d[1], false, true
}

// runBot joins and plays until ctx ends or the server drops the connection.
func runBot(ctx context.Context, c *client, color string, rate time.Duration, rng *rand.Rand) {
	go c.readPump()
	go c.writePump()
	c.join(color)

	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			dx, dy, bomb, ok := decide(&c.view, rng, 0.3)
			c.mu.Unlock()
			switch {
			case !ok:
			case bomb:
				c.bomb()
			default:
				c.move(dx, dy)
			}
		}
	}
}
