// Package timer delivers delayed watchdog messages measured in ticks.
package timer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/gamesession/pkg/domain"
)

// Sink receives watchdog messages when they fall due. orchestrator.Loop implements it.
type Sink interface {
	Timeout(check domain.QueryTimeoutStatus) error
}

type entry struct {
	due   uint64
	seq   uint64
	check domain.QueryTimeoutStatus
}

// Manual is a scheduler whose clock only moves when Advance is called.
type Manual struct {
	mu      sync.Mutex
	sink    Sink
	now     uint64
	seq     uint64
	entries []entry
}

// NewManual creates a manual scheduler at tick 0.
func NewManual() *Manual {
	return &Manual{}
}

// Attach sets where due messages go.
func (m *Manual) Attach(sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// Schedule queues check to fire delay ticks from now.
func (m *Manual) Schedule(ctx context.Context, delay uint32, check domain.QueryTimeoutStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.entries = append(m.entries, entry{due: m.now + uint64(delay), seq: m.seq, check: check})
	return nil
}

// Pending returns the number of messages not yet fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Now returns the current tick.
func (m *Manual) Now() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward and fires every message now due, oldest
// deadline first. It returns the number fired.
func (m *Manual) Advance(ticks uint32) int {
	m.mu.Lock()
	m.now += uint64(ticks)
	var due, rest []entry
	for _, e := range m.entries {
		if e.due <= m.now {
			due = append(due, e)
		} else {
			rest = append(rest, e)
		}
	}
	m.entries = rest
	sink := m.sink
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	fired := 0
	for _, e := range due {
		if sink == nil {
			continue
		}
		if err := sink.Timeout(e.check); err == nil {
			fired++
		}
	}
	return fired
}

// Wall is a scheduler where one tick lasts a fixed duration.
type Wall struct {
	tick time.Duration

	mu     sync.Mutex
	sink   Sink
	timers map[*time.Timer]struct{}
	closed bool
}

// NewWall creates a wall-clock scheduler.
func NewWall(tick time.Duration) *Wall {
	return &Wall{
		tick:   tick,
		timers: make(map[*time.Timer]struct{}),
	}
}

// Attach sets where due messages go.
func (w *Wall) Attach(sink Sink) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sink = sink
}

// Schedule fires check after delay ticks.
func (w *Wall) Schedule(ctx context.Context, delay uint32, check domain.QueryTimeoutStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return domain.ErrShutdown
	}

	var t *time.Timer
	t = time.AfterFunc(time.Duration(delay)*w.tick, func() {
		w.mu.Lock()
		delete(w.timers, t)
		sink := w.sink
		w.mu.Unlock()
		if sink != nil {
			_ = sink.Timeout(check)
		}
	})
	w.timers[t] = struct{}{}
	return nil
}

// Stop cancels every timer that has not fired.
func (w *Wall) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for t := range w.timers {
		t.Stop()
	}
	clear(w.timers)
}
