package detector

import "time"

// Clock abstracts wall time so detector tests can drive it deterministically.
type Clock interface {
	Now() time.Time
}

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler abstracts deferred execution for debounce windows.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return realClock{} }

type realTimer struct{ t *time.Timer }

func (t realTimer) Stop() bool { return t.t.Stop() }

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

// SystemScheduler returns a time.AfterFunc backed scheduler.
func SystemScheduler() Scheduler { return realScheduler{} }
