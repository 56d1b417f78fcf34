package detector

import (
	"sync"
	"time"
)

// fakeTimeline is a combined Clock and Scheduler driven manually by tests.
type fakeTimeline struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func newFakeTimeline() *fakeTimeline {
	return &fakeTimeline{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (tl *fakeTimeline) Now() time.Time {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.now
}

func (tl *fakeTimeline) AfterFunc(d time.Duration, f func()) Timer {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	t := &fakeTimer{deadline: tl.now.Add(d), fn: f}
	tl.timers = append(tl.timers, t)
	return t
}

// leakyTimeline is a fakeTimeline whose timers refuse to stop, modeling the
// time.Timer race where the callback has already escaped into the runtime by
// the time Stop is called. Stopped timers still fire on Advance.
type leakyTimeline struct {
	*fakeTimeline
}

type escapedTimer struct{ *fakeTimer }

func (escapedTimer) Stop() bool { return false }

func newLeakyTimeline() *leakyTimeline {
	return &leakyTimeline{fakeTimeline: newFakeTimeline()}
}

func (tl *leakyTimeline) AfterFunc(d time.Duration, f func()) Timer {
	return escapedTimer{tl.fakeTimeline.AfterFunc(d, f).(*fakeTimer)}
}

// Advance moves the clock forward and fires every due timer in scheduling
// order, including timers scheduled by fired callbacks.
func (tl *fakeTimeline) Advance(d time.Duration) {
	tl.mu.Lock()
	tl.now = tl.now.Add(d)
	for {
		var due *fakeTimer
		for _, t := range tl.timers {
			if !t.stopped && !t.fired && !t.deadline.After(tl.now) {
				due = t
				break
			}
		}
		if due == nil {
			break
		}
		due.fired = true
		fn := due.fn
		tl.mu.Unlock()
		fn()
		tl.mu.Lock()
	}
	tl.mu.Unlock()
}
