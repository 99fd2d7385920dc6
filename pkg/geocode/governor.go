package geocode

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// AMap allows three calls per second per key.
const (
	DefaultMaxPerSecond = 3
	DefaultMinInterval  = 400 * time.Millisecond
)

// Governor keeps calls under the upstream rate ceiling. A token bucket gates
// the start of each call, and every call is followed by a fixed pause whether
// it succeeded or not.
type Governor struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewGovernor creates a Governor. A non-positive maxPerSecond disables the
// bucket; a non-positive interval disables the pause.
func NewGovernor(maxPerSecond float64, interval time.Duration) *Governor {
	limit := rate.Inf
	if maxPerSecond > 0 {
		limit = rate.Limit(maxPerSecond)
	}
	return &Governor{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Do waits for a token, runs fn, then pauses for the configured interval.
// The pause ends early only if ctx is cancelled.
func (g *Governor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "geocode: rate limit")
	}
	defer g.pause(ctx)
	return fn(ctx)
}

func (g *Governor) pause(ctx context.Context) {
	if g.interval <= 0 {
		return
	}
	timer := time.NewTimer(g.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
