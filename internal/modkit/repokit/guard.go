package repokit

import (
	"context"
	"fmt"
	"time"
)

// MustGuard runs a store guard with a bounded wait and panics on failure
// binaries call it once at startup
func MustGuard(ctx context.Context, guard func(context.Context) error) {
	if guard == nil {
		return
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
