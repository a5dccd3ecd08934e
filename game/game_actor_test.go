package game

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/bombgrid/bollywood"
	"github.com/lguibr/bombgrid/utils"
)

const (
	waitTimeout         = 2 * time.Second
	waitTick            = 5 * time.Millisecond
	testShutdownTimeout = 2 * time.Second
)

// MockBroadcasterActor captures every message sent to it.
type MockBroadcasterActor struct {
	mu       sync.Mutex
	Received []interface{}
}

func (a *MockBroadcasterActor) Receive(ctx bollywood.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch ctx.Message().(type) {
	case bollywood.Started, bollywood.Stopping, bollywood.Stopped:
		return
	}
	a.Received = append(a.Received, ctx.Message())
}

func (a *MockBroadcasterActor) GetMessages() []interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	msgs := make([]interface{}, len(a.Received))
	copy(msgs, a.Received)
	return msgs
}

type gameActorFixture struct {
	engine      *bollywood.Engine
	queue       *ActionQueue
	snapshots   *Snapshots
	broadcaster *MockBroadcasterActor
	gamePID     *bollywood.PID
	now         time.Time
	mu          sync.Mutex
}

func (f *gameActorFixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *gameActorFixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func setupGameActor(t *testing.T, cfg utils.Config) *gameActorFixture {
	t.Helper()
	f := &gameActorFixture{
		engine:      bollywood.NewEngine(),
		queue:       NewActionQueue(cfg.ActionQueueCapacity),
		snapshots:   &Snapshots{},
		broadcaster: &MockBroadcasterActor{},
		now:         t0,
	}
	broadcasterPID := f.engine.Spawn(bollywood.NewProps(func() bollywood.Actor { return f.broadcaster }))
	f.gamePID = f.engine.Spawn(bollywood.NewProps(NewGameActorProducer(GameActorArgs{
		Engine:      f.engine,
		Config:      cfg,
		Queue:       f.queue,
		Snapshots:   f.snapshots,
		Rand:        utils.NewSeededRand(3),
		Clock:       f.clock,
		Broadcaster: broadcasterPID,
		ManualTicks: true,
	})))
	require.NotNil(t, f.gamePID)
	t.Cleanup(func() { f.engine.Shutdown(testShutdownTimeout) })
	return f
}

func (f *gameActorFixture) tick() {
	f.engine.Send(f.gamePID, &GameTick{}, nil)
}

func (f *gameActorFixture) waitForMessages(t *testing.T, n int) []interface{} {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.broadcaster.GetMessages()) >= n }, waitTimeout, waitTick)
	return f.broadcaster.GetMessages()
}

func TestGameActor_PublishesInitialSnapshot(t *testing.T) {
	f := setupGameActor(t, testConfig())
	require.Eventually(t, func() bool { return f.snapshots.Load() != nil }, waitTimeout, waitTick)
	snap := f.snapshots.Load()
	assert.Equal(t, MessageTypeState, snap.State.Type)
	assert.Contains(t, string(snap.JSON), `"type":"state"`)
}

func TestGameActor_JoinRegistersSessionThenInitThenDiff(t *testing.T) {
	f := setupGameActor(t, testConfig())
	sess := newFakeSession("p1")
	require.NoError(t, f.queue.Push(JoinAction{PlayerID: "p1", Session: sess}))
	f.tick()

	msgs := f.waitForMessages(t, 3)
	add, ok := msgs[0].(AddSession)
	require.True(t, ok, "got %T", msgs[0])
	assert.Same(t, sess, add.Session)

	send, ok := msgs[1].(SendToSession)
	require.True(t, ok, "got %T", msgs[1])
	assert.Equal(t, "p1", send.PlayerID)
	var init InitMessage
	require.NoError(t, json.Unmarshal(send.Payload, &init))
	assert.Equal(t, MessageTypeInit, init.Type)
	assert.Equal(t, "p1", init.PlayerID)
	require.Len(t, init.Players, 1)

	bc, ok := msgs[2].(BroadcastPayload)
	require.True(t, ok, "got %T", msgs[2])
	var diff DiffMessage
	require.NoError(t, json.Unmarshal(bc.Payload, &diff))
	assert.Equal(t, MessageTypeDiff, diff.Type)
	assert.Equal(t, "p1", diff.UpdatedPlayers[0].ID)

	require.Eventually(t, func() bool { return len(f.snapshots.Load().State.Players) == 1 }, waitTimeout, waitTick)
}

func TestGameActor_QuietTickBroadcastsNothing(t *testing.T) {
	f := setupGameActor(t, testConfig())
	require.NoError(t, f.queue.Push(JoinAction{PlayerID: "p1"}))
	f.tick()
	f.waitForMessages(t, 1)

	f.tick()
	f.tick()
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, f.broadcaster.GetMessages(), 1, "join without a session broadcasts only the diff")
}

func TestGameActor_LeaveRemovesSession(t *testing.T) {
	f := setupGameActor(t, testConfig())
	require.NoError(t, f.queue.Push(JoinAction{PlayerID: "p1", Session: newFakeSession("p1")}))
	f.tick()
	f.waitForMessages(t, 3)

	require.NoError(t, f.queue.Push(LeaveAction{PlayerID: "p1"}))
	f.tick()
	msgs := f.waitForMessages(t, 5)
	assert.Equal(t, RemoveSession{PlayerID: "p1"}, msgs[3])
	assert.IsType(t, BroadcastPayload{}, msgs[4])
}

func TestGameActor_RejectedJoinClosesSession(t *testing.T) {
	cfg := testConfig()
	cfg.CrateDensity = 1
	f := setupGameActor(t, cfg)
	sess := newFakeSession("p1")
	require.NoError(t, f.queue.Push(JoinAction{PlayerID: "p1", Session: sess}))
	f.tick()

	assert.Eventually(t, sess.isClosed, waitTimeout, waitTick)
	assert.Empty(t, f.broadcaster.GetMessages())
}

func TestGameActor_ResyncSendsFreshInit(t *testing.T) {
	f := setupGameActor(t, testConfig())
	require.NoError(t, f.queue.Push(JoinAction{PlayerID: "p1", Session: newFakeSession("p1")}))
	f.tick()
	f.waitForMessages(t, 3)

	f.engine.Send(f.gamePID, ResyncSession{PlayerID: "p1"}, nil)
	f.engine.Send(f.gamePID, ResyncSession{PlayerID: "ghost"}, nil)
	msgs := f.waitForMessages(t, 4)
	send, ok := msgs[3].(SendToSession)
	require.True(t, ok)
	assert.Equal(t, "p1", send.PlayerID)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, f.broadcaster.GetMessages(), 4)
}

func TestGameActor_BombLifecycleUsesClock(t *testing.T) {
	cfg := testConfig()
	f := setupGameActor(t, cfg)
	require.NoError(t, f.queue.Push(JoinAction{PlayerID: "p1"}))
	f.tick()
	f.waitForMessages(t, 1)

	require.NoError(t, f.queue.Push(PlaceBombAction{PlayerID: "p1"}))
	f.tick()
	f.waitForMessages(t, 2)

	f.advance(cfg.BombFuse)
	f.tick()
	msgs := f.waitForMessages(t, 3)
	var diff DiffMessage
	require.NoError(t, json.Unmarshal(msgs[2].(BroadcastPayload).Payload, &diff))
	require.NotEmpty(t, diff.UpdatedCells)
	for _, c := range diff.UpdatedCells {
		assert.Equal(t, Explosion, c.Value)
	}
	require.Len(t, diff.UpdatedPlayers, 1)
	assert.False(t, diff.UpdatedPlayers[0].Alive)
	assert.Equal(t, 1, diff.Scores["p1"].Deaths)
	assert.Zero(t, diff.Scores["p1"].Kills)
}

func TestGameActor_TickerDrivesSteps(t *testing.T) {
	cfg := testConfig()
	cfg.TickPeriod = 5 * time.Millisecond
	engine := bollywood.NewEngine()
	t.Cleanup(func() { engine.Shutdown(testShutdownTimeout) })
	queue := NewActionQueue(cfg.ActionQueueCapacity)
	snapshots := &Snapshots{}
	pid := engine.Spawn(bollywood.NewProps(NewGameActorProducer(GameActorArgs{
		Engine:    engine,
		Config:    cfg,
		Queue:     queue,
		Snapshots: snapshots,
	})))
	require.NotNil(t, pid)

	sess := newFakeSession("p1")
	require.NoError(t, queue.Push(JoinAction{PlayerID: "p1", Session: sess}))
	assert.Eventually(t, func() bool { return len(sess.sent()) >= 2 }, waitTimeout, waitTick)

	var init InitMessage
	require.NoError(t, json.Unmarshal(sess.sent()[0], &init))
	assert.Equal(t, MessageTypeInit, init.Type)

	engine.Stop(pid)
	assert.Eventually(t, sess.isClosed, waitTimeout, waitTick, "stopping closes sessions")
}
