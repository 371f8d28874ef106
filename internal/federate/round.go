// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federate

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/fedsearch/internal/backend"
	"github.com/pdiddy/fedsearch/internal/logger"
)

type source struct {
	cursor *SourceCursor
	client backend.Client
}

// roundFetcher pulls one remote page from every active source per round.
type roundFetcher struct {
	sources  []source
	size     int
	degraded bool
	round    int
	log      logger.Session
}

func newRoundFetcher(clients []backend.Client, req Request, degraded bool, log logger.Session) *roundFetcher {
	f := &roundFetcher{size: req.PageSize, degraded: degraded, log: log}
	for _, c := range clients {
		f.sources = append(f.sources, source{
			cursor: &SourceCursor{Backend: c.Name(), Query: req.Query, Fields: req.Fields},
			client: c,
		})
	}
	return f
}

func (f *roundFetcher) active() []int {
	var idx []int
	for i, s := range f.sources {
		if s.cursor.Active() {
			idx = append(idx, i)
		}
	}
	return idx
}

// runRound fetches from every active source concurrently and joins at the
// pool barrier. Pages come back in configured backend order regardless of
// completion order. Sources that fail in degraded mode are marked and named
// in failed; their pages are dropped.
//
// If ctx is done after the barrier the context error is returned as is so
// the caller can report cancellation rather than a backend fault.
func (f *roundFetcher) runRound(ctx context.Context) (pages []RemotePage, failed []string, err error) {
	active := f.active()
	if len(active) == 0 {
		return nil, nil, nil
	}
	f.round++

	slots := make([]RemotePage, len(active))
	errs := make([]error, len(active))

	p := pool.New().WithMaxGoroutines(len(active)).WithContext(ctx)
	if !f.degraded {
		p = p.WithCancelOnError().WithFirstError()
	}
	for slot, i := range active {
		src := f.sources[i]
		p.Go(func(ctx context.Context) error {
			page, err := src.cursor.FetchNext(ctx, src.client, f.size)
			if err != nil {
				errs[slot] = err
				if f.degraded {
					return nil
				}
				return err
			}
			slots[slot] = page
			return nil
		})
	}
	waitErr := p.Wait()

	if cerr := ctx.Err(); cerr != nil {
		return nil, nil, cerr
	}
	if waitErr != nil {
		return nil, nil, firstFault(errs, waitErr)
	}

	for slot, i := range active {
		cur := f.sources[i].cursor
		if errs[slot] != nil {
			cur.Failed = true
			failed = append(failed, cur.Backend)
			f.log.Warn("excluding %s after round %d: %v", cur.Backend, f.round, errs[slot])
			continue
		}
		f.log.Debug("round %d: %s returned %d record(s), skip now %d", f.round, cur.Backend, len(slots[slot].Records), cur.Skip)
		pages = append(pages, slots[slot])
	}
	return pages, failed, nil
}

// firstFault picks the failure that aborted the round, skipping fetches that
// only saw the pool's own cancellation.
func firstFault(errs []error, fallback error) error {
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return fallback
}
