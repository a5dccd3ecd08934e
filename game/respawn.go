package game

import (
	"log/slog"
	"sync"
	"time"
)

// Respawner schedules the revival of an eliminated player.
type Respawner interface {
	Schedule(playerID string, epoch int)
}

// TimerFunc runs f after d and returns a function that cancels it.
type TimerFunc func(d time.Duration, f func()) (stop func() bool)

// RealTimers backs TimerFunc with time.AfterFunc.
func RealTimers(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// RespawnScheduler turns an elimination into a RespawnAction pushed onto the
// action queue after a fixed delay. The timer goroutine never touches player
// state; the tick engine applies the action.
type RespawnScheduler struct {
	queue  *ActionQueue
	delay  time.Duration
	timers TimerFunc
	logger *slog.Logger

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]func() bool
	stopped bool
}

// NewRespawnScheduler returns a scheduler feeding queue. A nil timers uses
// RealTimers.
func NewRespawnScheduler(queue *ActionQueue, delay time.Duration, timers TimerFunc, logger *slog.Logger) *RespawnScheduler {
	if timers == nil {
		timers = RealTimers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RespawnScheduler{
		queue:   queue,
		delay:   delay,
		timers:  timers,
		logger:  logger,
		pending: make(map[uint64]func() bool),
	}
}

// Schedule implements Respawner.
func (r *RespawnScheduler) Schedule(playerID string, epoch int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.nextID++
	id := r.nextID
	r.pending[id] = r.timers(r.delay, func() {
		r.mu.Lock()
		_, live := r.pending[id]
		delete(r.pending, id)
		r.mu.Unlock()
		if !live {
			return
		}
		if err := r.queue.Push(RespawnAction{PlayerID: playerID, Epoch: epoch}); err != nil {
			r.logger.Warn("respawn dropped", "player", playerID, "err", err)
		}
	})
}

// Pending returns the number of respawns waiting for their timer.
func (r *RespawnScheduler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Stop cancels every pending respawn and refuses new ones.
func (r *RespawnScheduler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for id, stop := range r.pending {
		stop()
		delete(r.pending, id)
	}
}
