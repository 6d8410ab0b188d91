// Package sessions tracks live tutoring sessions for drain and capacity
// control. Each registered session exposes a cancel and a warn hook; the
// tracker fans server-wide signals out to them and lets shutdown wait for
// every session to unwind.
package sessions

import (
	"context"
	"errors"
	"sync"
)

// ErrCapacity is returned by Register when the tracker is full.
var ErrCapacity = errors.New("session capacity reached")

// Handle is the slice of a live session the tracker is allowed to touch.
type Handle struct {
	Cancel func()
	Warn   func(code, message string) error
}

type entry struct {
	handle Handle
	once   sync.Once
}

// Tracker registers live sessions up to a fixed capacity. Every session
// holds upstream recognition, generation, and synthesis connections, so the
// cap bounds the gateway's upstream fan-out as well.
type Tracker struct {
	mu       sync.Mutex
	limit    int
	sessions map[string]*entry
	wg       sync.WaitGroup
}

// NewTracker builds a tracker admitting at most limit concurrent sessions.
// A non-positive limit means unlimited.
func NewTracker(limit int) *Tracker {
	return &Tracker{
		limit:    limit,
		sessions: make(map[string]*entry),
	}
}

// Register adds a session and returns its unregister func. Re-registering an
// id replaces the earlier registration. At capacity, Register reports
// ErrCapacity and the caller should refuse the connection.
func (t *Tracker) Register(sessionID string, h Handle) (unregister func(), err error) {
	if t == nil {
		return func() {}, nil
	}

	e := &entry{handle: h}

	t.mu.Lock()
	if t.sessions == nil {
		t.sessions = make(map[string]*entry)
	}
	old := t.sessions[sessionID]
	if old == nil && t.limit > 0 && len(t.sessions) >= t.limit {
		t.mu.Unlock()
		return nil, ErrCapacity
	}
	t.sessions[sessionID] = e
	t.wg.Add(1)
	t.mu.Unlock()

	if old != nil {
		t.unregister(sessionID, old)
	}

	return func() { t.unregister(sessionID, e) }, nil
}

func (t *Tracker) unregister(sessionID string, e *entry) {
	if t == nil || e == nil {
		return
	}
	e.once.Do(func() {
		t.mu.Lock()
		if t.sessions != nil && t.sessions[sessionID] == e {
			delete(t.sessions, sessionID)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

// Count reports the number of registered sessions.
func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// WarnAll delivers a non-fatal error frame to every session, best effort.
func (t *Tracker) WarnAll(code, message string) (sent int) {
	if t == nil {
		return 0
	}

	var warns []func(code, message string) error
	t.mu.Lock()
	for _, e := range t.sessions {
		if e == nil || e.handle.Warn == nil {
			continue
		}
		warns = append(warns, e.handle.Warn)
	}
	t.mu.Unlock()

	for _, warn := range warns {
		_ = warn(code, message)
		sent++
	}
	return sent
}

// CancelAll tears down every registered session.
func (t *Tracker) CancelAll() (canceled int) {
	if t == nil {
		return 0
	}

	var cancels []func()
	t.mu.Lock()
	for _, e := range t.sessions {
		if e == nil || e.handle.Cancel == nil {
			continue
		}
		cancels = append(cancels, e.handle.Cancel)
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
		canceled++
	}
	return canceled
}

// Wait blocks until every session has unregistered or ctx expires, and
// reports whether the tracker fully drained.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	if ctx == nil {
		t.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
