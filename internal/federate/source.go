// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federate

import (
	"context"

	"github.com/pdiddy/fedsearch/internal/backend"
	"github.com/pdiddy/fedsearch/pkg/types"
)

// RemotePage is the flattened result of one fetch against one backend.
type RemotePage struct {
	Backend string
	Records []types.Record
}

// SourceCursor is the per-backend paging state for one query session.
// Only the round fetcher's task for that backend mutates it.
type SourceCursor struct {
	Backend string
	Query   string
	Fields  []string

	// Skip counts records already retrieved from the backend.
	Skip int

	// Exhausted is set once a fetch returns no records.
	Exhausted bool

	// Failed is set in degraded mode once a fetch errors.
	Failed bool
}

// Active reports whether the cursor takes part in the next round.
func (c *SourceCursor) Active() bool {
	return !c.Exhausted && !c.Failed
}

// FetchNext issues one query for up to size records after Skip. The client
// follows the backend's own continuation and returns one flat slice. On
// success Skip advances by the number of records returned; an empty result
// exhausts the cursor. On failure the cursor is left untouched.
func (c *SourceCursor) FetchNext(ctx context.Context, client backend.Client, size int) (RemotePage, error) {
	page := RemotePage{Backend: c.Backend}
	if !c.Active() {
		return page, nil
	}

	records, err := client.Search(ctx, types.SearchRequest{
		Query:  c.Query,
		Size:   size,
		Skip:   c.Skip,
		Fields: c.Fields,
	})
	if err != nil {
		return page, &BackendError{Backend: c.Backend, Err: err}
	}

	for i := range records {
		records[i].Backend = c.Backend
	}
	c.Skip += len(records)
	if len(records) == 0 {
		c.Exhausted = true
	}
	page.Records = records
	return page, nil
}
