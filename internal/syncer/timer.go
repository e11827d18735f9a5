package syncer

import (
	"sync"
	"time"
)

// Timer is a single-slot cancellable timer. Scheduling replaces any pending
// callback, so at most one callback is ever waiting.
type Timer interface {
	Schedule(d time.Duration, fn func())
	Cancel() bool
}

// RealTimer implements Timer with time.AfterFunc.
type RealTimer struct {
	mu sync.Mutex
	t  *time.Timer
}

// NewTimer returns an idle RealTimer.
func NewTimer() *RealTimer {
	return &RealTimer{}
}

func (rt *RealTimer) Schedule(d time.Duration, fn func()) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.t != nil {
		rt.t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		rt.mu.Lock()
		current := rt.t == t
		if current {
			rt.t = nil
		}
		rt.mu.Unlock()
		if current {
			fn()
		}
	})
	rt.t = t
}

// Cancel stops the pending callback and reports whether one was pending.
func (rt *RealTimer) Cancel() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.t == nil {
		return false
	}
	rt.t.Stop()
	rt.t = nil
	return true
}
