package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock. Time only moves when Advance is called.
// AfterFunc callbacks run synchronously inside Advance in deadline order, so
// a callback must not call Advance itself.
type FakeClock struct {
	mu      sync.Mutex
	changed *sync.Cond
	now     time.Time
	seq     int
	pending []*fakeTimer
}

type fakeTimer struct {
	clock    *FakeClock
	seq      int
	deadline time.Time
	fn       func()
	ch       chan time.Time
	interval time.Duration
	stopped  bool
}

// NewFake returns a FakeClock frozen at start.
func NewFake(start time.Time) *FakeClock {
	c := &FakeClock{now: start}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to run once the clock has advanced by d. A
// non-positive d still waits for the next Advance call.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.add(d, f, nil, 0)
}

// NewTicker returns a ticker that fires once per interval crossed by Advance.
// Ticks are dropped when the channel is full.
func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	return fakeTicker{c.add(d, nil, make(chan time.Time, 1), d)}
}

func (c *FakeClock) add(d time.Duration, fn func(), ch chan time.Time, interval time.Duration) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{
		clock:    c,
		seq:      c.seq,
		deadline: c.now.Add(max(d, 0)),
		fn:       fn,
		ch:       ch,
		interval: interval,
	}
	c.pending = append(c.pending, t)
	c.changed.Broadcast()
	return t
}

// Advance moves the clock forward by d and fires every timer whose deadline
// is reached, earliest first. Tickers are re-armed for their next interval.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		t := c.popExpired(target)
		if t == nil {
			return
		}
		if t.fn != nil {
			t.fn()
			continue
		}
		select {
		case t.ch <- target:
		default:
		}
	}
}

func (c *FakeClock) popExpired(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = slices.DeleteFunc(c.pending, func(t *fakeTimer) bool { return t.stopped })
	idx := -1
	for i, t := range c.pending {
		if t.deadline.After(target) {
			continue
		}
		if idx < 0 || t.deadline.Before(c.pending[idx].deadline) ||
			(t.deadline.Equal(c.pending[idx].deadline) && t.seq < c.pending[idx].seq) {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}

	t := c.pending[idx]
	if t.interval > 0 {
		t.deadline = t.deadline.Add(t.interval)
	} else {
		c.pending = slices.Delete(c.pending, idx, idx+1)
	}
	c.changed.Broadcast()
	return t
}

// PendingCount returns the number of armed timers and tickers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

// WaitForTimers blocks until at least n timers are armed. It closes the race
// between a goroutine arming a timer and the test advancing the clock.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

func (c *FakeClock) pendingLocked() int {
	n := 0
	for _, t := range c.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped {
		return false
	}
	active := slices.Contains(t.clock.pending, t)
	t.stopped = true
	t.clock.changed.Broadcast()
	return active
}

type fakeTicker struct{ *fakeTimer }

func (t fakeTicker) C() <-chan time.Time { return t.ch }
func (t fakeTicker) Stop()               { t.fakeTimer.Stop() }
