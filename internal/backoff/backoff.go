// Package backoff provides the capped exponential retry schedule shared by the
// connectivity monitor and the real-time update channel.
package backoff

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy describes a retry schedule: delays grow as Base × 2^n, are capped at
// Cap, and stop after MaxAttempts delays.
type Policy struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

// Sequence returns a fresh schedule. The first delay is Base × 2^skip, so a
// caller that counts the failed attempt before computing the delay passes 1.
// Each call to Next yields the next delay until MaxAttempts delays have been
// produced; after that Next reports stop.
func (p Policy) Sequence(skip int) retry.Backoff {
	b := retry.NewExponential(p.Base << skip)
	b = retry.WithCappedDuration(p.Cap, b)
	return retry.WithMaxRetries(uint64(max(p.MaxAttempts, 0)), b)
}

// Delays lists the whole schedule. It is used for logging and tests.
func (p Policy) Delays(skip int) []time.Duration {
	seq := p.Sequence(skip)
	out := make([]time.Duration, 0, p.MaxAttempts)
	for {
		d, stop := seq.Next()
		if stop {
			return out
		}
		out = append(out, d)
	}
}
