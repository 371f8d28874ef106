// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/fedsearch/pkg/types"
)

// Throttled wraps a Backend and spaces searches with a token bucket. Index
// management calls pass through unthrottled.
type Throttled struct {
	Backend
	limiter *rate.Limiter
}

// NewThrottled limits b to perSecond searches with the given burst (min 1).
func NewThrottled(b Backend, perSecond float64, burst int) *Throttled {
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{
		Backend: b,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Search waits for a token, then delegates.
func (t *Throttled) Search(ctx context.Context, req types.SearchRequest) ([]types.Record, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.Backend.Search(ctx, req)
}

// wait blocks until a token is due or ctx ends. A token due after the
// context deadline still waits out the deadline and returns ctx.Err(), so a
// session timeout reads as cancellation and not as a limiter fault.
func (t *Throttled) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := t.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate limit for %s allows no more searches", t.Name())
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
