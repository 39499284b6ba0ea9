package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by hand. Posted work runs on RunPending and
// timers fire on Advance, which makes timer-driven code testable without
// sleeping.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	pending []func()
	timers  []*manualTimer
	seq     int
}

type manualTimer struct {
	at    time.Duration
	seq   int
	delay time.Duration
	t     *Timer
	fn    func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
}

func (m *Manual) After(d time.Duration, fn func()) *Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	mt := &manualTimer{at: m.now + d, seq: m.seq, delay: d, fn: fn}
	t := &Timer{}
	t.stop = func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, other := range m.timers {
			if other == mt {
				m.timers = append(m.timers[:i], m.timers[i+1:]...)
				return true
			}
		}
		return false
	}
	mt.t = t
	m.timers = append(m.timers, mt)
	return t
}

// Call runs fn inline and then drains posted work. Tests drive the client
// from a single goroutine, so there is no loop to hand off to.
func (m *Manual) Call(fn func()) {
	fn()
	m.RunPending()
}

// RunPending runs posted work, including work posted while draining.
func (m *Manual) RunPending() {
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order
// and draining posted work after each one.
func (m *Manual) Advance(d time.Duration) {
	m.RunPending()

	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.Slice(m.timers, func(i, j int) bool {
			if m.timers[i].at == m.timers[j].at {
				return m.timers[i].seq < m.timers[j].seq
			}
			return m.timers[i].at < m.timers[j].at
		})
		if len(m.timers) == 0 || m.timers[0].at > target {
			m.now = target
			m.mu.Unlock()
			return
		}
		next := m.timers[0]
		m.timers = m.timers[1:]
		m.now = next.at
		m.mu.Unlock()

		next.t.fire(next.fn)
		m.RunPending()
	}
}

// PendingDelays lists the delays of timers that have not fired yet, in
// deadline order.
func (m *Manual) PendingDelays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	timers := append([]*manualTimer(nil), m.timers...)
	sort.Slice(timers, func(i, j int) bool { return timers[i].at < timers[j].at })
	out := make([]time.Duration, 0, len(timers))
	for _, t := range timers {
		out = append(out, t.delay)
	}
	return out
}

// Now reports the manual clock.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
