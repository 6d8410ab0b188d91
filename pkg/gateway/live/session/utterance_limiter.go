package session

import "time"

// utteranceLimiter is a token bucket over utterance submissions. A session
// gets a message budget and a byte budget per second; either running dry
// rejects the submission. The clock is injected so refill math is testable.
type utteranceLimiter struct {
	now        func() time.Time
	msgRate    int64
	msgTokens  int64
	byteRate   int64
	byteTokens int64
	burstSecs  int64
	lastRefill time.Time
}

func newUtteranceLimiter(now func() time.Time, msgsPerSec int, bytesPerSec int64, burstSeconds int) *utteranceLimiter {
	if msgsPerSec <= 0 && bytesPerSec <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	if burstSeconds <= 0 {
		burstSeconds = 1
	}

	l := &utteranceLimiter{
		now:       now,
		msgRate:   int64(msgsPerSec),
		byteRate:  bytesPerSec,
		burstSecs: int64(burstSeconds),
	}
	l.lastRefill = now()
	if l.msgRate > 0 {
		l.msgTokens = l.msgRate * l.burstSecs
	}
	if l.byteRate > 0 {
		l.byteTokens = l.byteRate * l.burstSecs
	}
	return l
}

// Allow charges one message plus size bytes against the budgets. A nil
// limiter admits everything.
func (l *utteranceLimiter) Allow(size int) bool {
	if l == nil {
		return true
	}
	l.refill()

	if l.msgRate > 0 && l.msgTokens < 1 {
		return false
	}
	if size < 0 {
		size = 0
	}
	if l.byteRate > 0 && l.byteTokens < int64(size) {
		return false
	}
	if l.msgRate > 0 {
		l.msgTokens--
	}
	if l.byteRate > 0 {
		l.byteTokens -= int64(size)
	}
	return true
}

func (l *utteranceLimiter) refill() {
	now := l.now()
	if l.lastRefill.IsZero() {
		l.lastRefill = now
		return
	}
	elapsed := now.Sub(l.lastRefill)
	if elapsed <= 0 {
		return
	}

	if l.msgRate > 0 {
		add := (elapsed.Nanoseconds() * l.msgRate) / int64(time.Second)
		if add > 0 {
			l.msgTokens += add
			if max := l.msgRate * l.burstSecs; l.msgTokens > max {
				l.msgTokens = max
			}
		}
	}
	if l.byteRate > 0 {
		add := (elapsed.Nanoseconds() * l.byteRate) / int64(time.Second)
		if add > 0 {
			l.byteTokens += add
			if max := l.byteRate * l.burstSecs; l.byteTokens > max {
				l.byteTokens = max
			}
		}
	}

	l.lastRefill = now
}
