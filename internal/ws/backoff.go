package ws

import "time"

// Policy is capped exponential backoff with an attempt ceiling.
type Policy struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

// DefaultPolicy waits 1s, 2s, 4s ... up to 30s, ten times.
func DefaultPolicy() Policy {
	return Policy{Base: time.Second, Cap: 30 * time.Second, MaxAttempts: 10}
}

// Delay is how long to wait before reconnect attempt n (0-based):
// min(Base * 2^n, Cap).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.Base
	for i := 0; i < attempt; i++ {
		if d >= p.Cap || d > p.Cap/2 {
			return p.Cap
		}
		d *= 2
	}
	if d > p.Cap {
		return p.Cap
	}
	return d
}

// Exhausted reports whether no attempt remains after n have been used.
func (p Policy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}
