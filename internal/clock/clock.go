// Package clock abstracts the time operations used by the timer-driven
// components (connectivity monitor, real-time channel, sync job) so that
// their retry, backoff and polling schedules can be tested without sleeping.
package clock

import "time"

// Clock is the subset of the time package the sync layer depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f in its own goroutine (real) or synchronously during
	// Advance (fake) once d has elapsed. The returned Timer cancels the call.
	AfterFunc(d time.Duration, f func()) Timer

	// NewTicker delivers ticks every d on the returned Ticker's channel.
	// It panics if d <= 0.
	NewTicker(d time.Duration) Ticker
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call. It reports whether the timer was still pending.
	Stop() bool
}

// Ticker is a periodic tick source.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
