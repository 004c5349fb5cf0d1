// Package guardrails holds the time budgets and the replica lease of a collection run
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for a single run
// zero values mean no extra timeout at that level
type Timeouts struct {
	// Run is the overall budget of one batch
	Run time.Duration

	// Source caps each content source call
	Source time.Duration

	// DB caps each storage write
	DB time.Duration
}

// ForRun returns a context limited by the run budget without extending any parent deadline
func ForRun(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Run)
}

// ForSource returns a sub context for one source call
func ForSource(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Source)
}

// ForDB returns a sub context for one storage write
func ForDB(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.DB)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout takes the tighter of d and the parent remainder
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
