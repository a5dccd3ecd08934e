package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/lguibr/bombgrid/bollywood"
	"github.com/lguibr/bombgrid/game"
	"github.com/lguibr/bombgrid/utils"
)

const (
	e2eTimeout = 3 * time.Second
	e2ePoll    = 10 * time.Millisecond
)

func e2eConfig() utils.Config {
	cfg := utils.DefaultConfig()
	cfg.GridWidth, cfg.GridHeight = 11, 11
	cfg.CrateDensity = 0.3
	cfg.TickPeriod = 10 * time.Millisecond
	cfg.BombFuse = time.Minute
	cfg.MoveCooldown = 0
	return cfg
}

type stack struct {
	ts        *httptest.Server
	snapshots *game.Snapshots
}

func startStack(t *testing.T, cfg utils.Config) *stack {
	t.Helper()
	engine := bollywood.NewEngine()
	queue := game.NewActionQueue(cfg.ActionQueueCapacity)
	snaps := &game.Snapshots{}
	pid := engine.Spawn(bollywood.NewProps(game.NewGameActorProducer(game.GameActorArgs{
		Engine:    engine,
		Config:    cfg,
		Queue:     queue,
		Snapshots: snaps,
		Rand:      utils.NewSeededRand(11),
	})))
	require.NotNil(t, pid)

	ts := httptest.NewServer(New(cfg, queue, snaps, nil).Router())
	t.Cleanup(func() {
		engine.Shutdown(2 * time.Second)
		ts.Close()
	})
	return &stack{ts: ts, snapshots: snaps}
}

func (s *stack) dial(t *testing.T, origin string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/subscribe"
	ws, err := websocket.Dial(url, "", origin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, websocket.Message.Send(ws, frame))
}

// readUntil returns the first frame matching accept.
func readUntil(t *testing.T, ws *websocket.Conn, accept func(head string, raw []byte) bool) []byte {
	t.Helper()
	deadline := time.Now().Add(e2eTimeout)
	require.NoError(t, ws.SetReadDeadline(deadline))
	for {
		var raw []byte
		require.NoError(t, websocket.Message.Receive(ws, &raw))
		var head struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &head))
		if accept(head.Type, raw) {
			return raw
		}
	}
}

func join(t *testing.T, ws *websocket.Conn, color string) game.InitMessage {
	t.Helper()
	send(t, ws, `{"type":"join","color":"`+color+`"}`)
	raw := readUntil(t, ws, func(head string, _ []byte) bool { return head == game.MessageTypeInit })
	var init game.InitMessage
	require.NoError(t, json.Unmarshal(raw, &init))
	return init
}

func selfIn(init game.InitMessage) (game.PlayerState, bool) {
	for _, p := range init.Players {
		if p.ID == init.PlayerID {
			return p, true
		}
	}
	return game.PlayerState{}, false
}

func waitForBomb(t *testing.T, ws *websocket.Conn, at game.PlayerState) {
	t.Helper()
	readUntil(t, ws, func(head string, raw []byte) bool {
		if head != game.MessageTypeDiff {
			return false
		}
		var d game.DiffMessage
		require.NoError(t, json.Unmarshal(raw, &d))
		for _, c := range d.UpdatedCells {
			if c.X == at.X && c.Y == at.Y && c.Value == game.Bomb {
				return true
			}
		}
		return false
	})
}

func TestE2E_JoinReceivesInit(t *testing.T) {
	cfg := e2eConfig()
	s := startStack(t, cfg)
	ws := s.dial(t, s.ts.URL)

	init := join(t, ws, "#12ab34")
	require.NotEmpty(t, init.PlayerID)
	assert.Equal(t, cfg.GridWidth, init.Width)
	assert.Len(t, init.Grid, cfg.GridHeight)
	self, ok := selfIn(init)
	require.True(t, ok)
	assert.True(t, self.Alive)
	assert.Equal(t, "#12ab34", self.Color)
	assert.Equal(t, game.Empty, init.Grid[self.Y][self.X])
}

func TestE2E_BombIntentShowsUpInDiff(t *testing.T) {
	s := startStack(t, e2eConfig())
	ws := s.dial(t, s.ts.URL)
	init := join(t, ws, "")
	self, ok := selfIn(init)
	require.True(t, ok)

	send(t, ws, `{"type":"bomb"}`)
	waitForBomb(t, ws, self)
}

func TestE2E_MalformedFramesAreIgnored(t *testing.T) {
	s := startStack(t, e2eConfig())
	ws := s.dial(t, s.ts.URL)
	init := join(t, ws, "")
	self, _ := selfIn(init)

	send(t, ws, `{not json`)
	send(t, ws, `{"type":"move","dx":"left"}`)
	send(t, ws, `{"type":"teleport","dx":5}`)
	send(t, ws, `{"type":"bomb"}`)
	waitForBomb(t, ws, self)
}

func TestE2E_OversizedFrameIsSkipped(t *testing.T) {
	s := startStack(t, e2eConfig())
	ws := s.dial(t, s.ts.URL)
	init := join(t, ws, "")
	self, _ := selfIn(init)

	padded := `{"type":"move","dx":1,"dy":0,"pad":"` + strings.Repeat("x", 5000) + `"}`
	require.Greater(t, len(padded), maxFrameBytes)
	send(t, ws, padded)
	send(t, ws, `{"type":"bomb"}`)
	waitForBomb(t, ws, self)
}

func TestE2E_OtherPlayersSeeArrivalAndDeparture(t *testing.T) {
	s := startStack(t, e2eConfig())
	first := s.dial(t, s.ts.URL)
	join(t, first, "")

	second := s.dial(t, s.ts.URL)
	secondInit := join(t, second, "")
	assert.Len(t, secondInit.Players, 2)

	readUntil(t, first, func(head string, raw []byte) bool {
		var d game.DiffMessage
		_ = json.Unmarshal(raw, &d)
		for _, p := range d.UpdatedPlayers {
			if p.ID == secondInit.PlayerID && p.Alive {
				return true
			}
		}
		return false
	})

	require.NoError(t, second.Close())
	readUntil(t, first, func(head string, raw []byte) bool {
		var d game.DiffMessage
		_ = json.Unmarshal(raw, &d)
		for _, p := range d.UpdatedPlayers {
			if p.ID == secondInit.PlayerID && !p.Alive {
				_, listed := d.Scores[p.ID]
				return !listed
			}
		}
		return false
	})

	assert.Eventually(t, func() bool {
		snap := s.snapshots.Load()
		return snap != nil && len(snap.State.Players) == 1
	}, e2eTimeout, e2ePoll)
}

func TestE2E_FirstFrameMustBeJoin(t *testing.T) {
	s := startStack(t, e2eConfig())
	ws := s.dial(t, s.ts.URL)
	send(t, ws, `{"type":"bomb"}`)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(e2eTimeout)))
	var raw []byte
	assert.Error(t, websocket.Message.Receive(ws, &raw), "server hangs up")
}

func TestE2E_OriginRejected(t *testing.T) {
	cfg := e2eConfig()
	cfg.AllowedOrigins = []string{"http://allowed.test"}
	s := startStack(t, cfg)
	url := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/subscribe"

	_, err := websocket.Dial(url, "", "http://evil.test")
	assert.Error(t, err)

	ws, err := websocket.Dial(url, "", "http://allowed.test")
	require.NoError(t, err)
	_ = ws.Close()
}

func TestE2E_StateEndpointTracksPlayers(t *testing.T) {
	s := startStack(t, e2eConfig())
	ws := s.dial(t, s.ts.URL)
	init := join(t, ws, "")

	assert.Eventually(t, func() bool {
		resp, err := http.Get(s.ts.URL + "/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var state game.InitMessage
		if json.NewDecoder(resp.Body).Decode(&state) != nil {
			return false
		}
		return len(state.Players) == 1 && state.Players[0].ID == init.PlayerID
	}, e2eTimeout, e2ePoll)
}
