package flow

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Timer schedules one-shot callbacks, used for snooze re-fires.
type Timer interface {
	// ScheduleAfter schedules fn to run once after delay and returns a
	// cancellation ID.
	ScheduleAfter(delay time.Duration, fn func()) (string, error)
	// Cancel cancels a scheduled callback by ID. Cancelling an unknown or
	// already-fired ID is a no-op.
	Cancel(id string) error
	// Stop cancels everything still scheduled.
	Stop()
}

type timerEntry struct {
	timer     *time.Timer
	expiresAt time.Time
}

// SimpleTimer implements Timer using Go's standard time package. Entries do
// not survive a restart.
type SimpleTimer struct {
	timers map[string]*timerEntry
	mu     sync.Mutex
	nextID int64
}

// NewSimpleTimer creates a new SimpleTimer.
func NewSimpleTimer() *SimpleTimer {
	return &SimpleTimer{timers: make(map[string]*timerEntry)}
}

// ScheduleAfter schedules a function to run after a delay.
func (t *SimpleTimer) ScheduleAfter(delay time.Duration, fn func()) (string, error) {
	t.mu.Lock()
	t.nextID++
	id := fmt.Sprintf("timer_%d", t.nextID)
	t.mu.Unlock()

	timer := time.AfterFunc(delay, func() {
		slog.Debug("SimpleTimer executing scheduled function", "id", id)
		fn()
		t.mu.Lock()
		delete(t.timers, id)
		t.mu.Unlock()
	})

	t.mu.Lock()
	t.timers[id] = &timerEntry{timer: timer, expiresAt: time.Now().Add(delay)}
	t.mu.Unlock()

	slog.Debug("SimpleTimer ScheduleAfter succeeded", "id", id, "delay", delay)
	return id, nil
}

// Cancel cancels a scheduled function by ID.
func (t *SimpleTimer) Cancel(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, exists := t.timers[id]; exists {
		entry.timer.Stop()
		delete(t.timers, id)
		slog.Debug("SimpleTimer Cancel succeeded", "id", id)
	}
	return nil
}

// Stop cancels all scheduled timers.
func (t *SimpleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	slog.Debug("SimpleTimer stopping all timers", "count", len(t.timers))
	for _, entry := range t.timers {
		entry.timer.Stop()
	}
	t.timers = make(map[string]*timerEntry)
}

// Pending returns the number of callbacks still scheduled.
func (t *SimpleTimer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
