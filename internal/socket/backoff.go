package socket

import "time"

// Backoff decides whether and when a session may retry a dropped
// connection. It is pure; the attempt counter lives in the Session.
type Backoff struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

// DefaultBackoff matches the production schedule: 2s, 4s, 8s, 16s, 30s.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:        time.Second,
		Cap:         30 * time.Second,
		MaxAttempts: 5,
	}
}

// Next returns the delay before the given attempt (1-based) and whether
// the attempt is allowed at all. The delay is min(Base*2^attempt, Cap).
func (b Backoff) Next(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt > b.MaxAttempts {
		return 0, false
	}
	delay := b.Base << uint(attempt)
	if delay <= 0 || delay > b.Cap {
		delay = b.Cap
	}
	return delay, true
}
