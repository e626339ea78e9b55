// Package schedule provides cancellable delayed tasks and a debouncer built
// on top of them.
//
// Scheduler abstracts the timer so that components with timing contracts
// (debounced persistence, artificial latency) can be driven by a Manual
// scheduler in tests instead of the wall clock.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// CancelFunc cancels a scheduled task. It reports whether the task was
// stopped before running. Calling it more than once is safe.
type CancelFunc func() bool

// Scheduler runs fn once after delay unless cancelled first.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) CancelFunc
}

// Real schedules on the runtime timer via time.AfterFunc.
type Real struct{}

// Schedule implements Scheduler.
func (Real) Schedule(delay time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(delay, fn)
	return t.Stop
}

// Manual is a Scheduler driven by explicit calls to Advance. Tasks run
// synchronously on the goroutine calling Advance, in due-time order.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks map[uint64]*manualTask
}

type manualTask struct {
	id  uint64
	due time.Duration
	fn  func()
}

// NewManual returns a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{tasks: make(map[uint64]*manualTask)}
}

// Schedule implements Scheduler.
func (m *Manual) Schedule(delay time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := m.seq
	m.tasks[id] = &manualTask{id: id, due: m.now + delay, fn: fn}
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.tasks[id]; !ok {
			return false
		}
		delete(m.tasks, id)
		return true
	}
}

// Advance moves the clock forward by d and runs every task that becomes due.
// Tasks scheduled by running tasks are honoured if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		delete(m.tasks, next.id)
		m.now = next.due
		m.mu.Unlock()

		next.fn()
	}
}

func (m *Manual) nextDueLocked(limit time.Duration) *manualTask {
	due := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.due <= limit {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})
	return due[0]
}

// Pending returns the number of tasks not yet run or cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
