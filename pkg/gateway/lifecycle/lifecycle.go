// Package lifecycle holds the process drain flag shared between the signal
// handler and the HTTP surface. Once draining, readiness fails and new live
// sessions are refused while in-flight work unwinds.
package lifecycle

import "sync/atomic"

type Lifecycle struct {
	draining atomic.Bool
}

func (l *Lifecycle) SetDraining(draining bool) {
	if l == nil {
		return
	}
	l.draining.Store(draining)
}

func (l *Lifecycle) IsDraining() bool {
	if l == nil {
		return false
	}
	return l.draining.Load()
}
