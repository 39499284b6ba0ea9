// Package loop provides the single execution context the client runs on.
//
// Every socket callback, timer expiry and event handler is funnelled through
// one goroutine, so game state, the action queue and the connection status
// need no locks. Code running outside the loop hands work to it with Post.
package loop

import (
	"context"
	"sync"
	"time"
)

// Scheduler is what loop-bound components depend on. Loop implements it for
// production and Manual implements it for deterministic tests.
type Scheduler interface {
	// Post queues fn to run on the loop. Safe to call from any goroutine.
	Post(fn func())
	// After runs fn on the loop once d has elapsed, unless the returned
	// timer is stopped first. Must be called from the loop.
	After(d time.Duration, fn func()) *Timer
}

// Timer is a cancellable scheduled task. Stop must be called from the loop;
// once it returns the task is guaranteed not to run.
type Timer struct {
	stop    func() bool
	stopped bool
	fired   bool
}

// Stop cancels the task. It reports whether the call prevented it from
// running.
func (t *Timer) Stop() bool {
	if t == nil || t.stopped || t.fired {
		return false
	}
	t.stopped = true
	if t.stop != nil {
		t.stop()
	}
	return true
}

// Active reports whether the task is still waiting to run.
func (t *Timer) Active() bool {
	return t != nil && !t.stopped && !t.fired
}

// fire runs fn unless the timer was stopped while the expiry was in flight.
func (t *Timer) fire(fn func()) {
	if t.stopped || t.fired {
		return
	}
	t.fired = true
	fn()
}

// Runner is a Scheduler that can also run work synchronously on behalf of
// callers outside the loop.
type Runner interface {
	Scheduler
	Call(fn func())
}

type Loop struct {
	inbox chan func()
	done  chan struct{}
	once  sync.Once
}

func New() *Loop {
	return &Loop{
		inbox: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Run executes posted work until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case fn := <-l.inbox:
			fn()
		}
	}
}

// Stop ends Run. Work posted afterwards is discarded.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *Loop) Post(fn func()) {
	select {
	case l.inbox <- fn:
	case <-l.done:
	}
}

func (l *Loop) After(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	tt := time.AfterFunc(d, func() {
		l.Post(func() { t.fire(fn) })
	})
	t.stop = tt.Stop
	return t
}

// Call runs fn on the loop and waits for it to finish. It must not be used
// from the loop itself.
func (l *Loop) Call(fn func()) {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-l.done:
	}
}
