// Package metrics provides abstract metrics interfaces that allow pluggable
// instrumentation backends (Prometheus, StatsD, etc.) without coupling the
// cache to any specific implementation.
package metrics

import "time"

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time.
type Timer interface {
	// ObserveDuration records the elapsed time since the timer was created.
	ObserveDuration()
}

// TimerFunc adapts a function to the Timer interface.
type TimerFunc func()

func (f TimerFunc) ObserveDuration() { f() }

// Since returns a Timer that calls observe with the time elapsed since
// its creation.
func Since(observe func(time.Duration)) Timer {
	start := time.Now()
	return TimerFunc(func() { observe(time.Since(start)) })
}

type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

// NopTimer returns a no-op Timer.
func NopTimer() Timer { return nopTimer{} }
