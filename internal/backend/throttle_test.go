// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fedsearch/internal/backend/memory"
	"github.com/pdiddy/fedsearch/pkg/types"
)

func TestThrottledSpacesSearches(t *testing.T) {
	mem := memory.NewWithRecords("mem", []types.Record{
		{Document: map[string]any{"id": "1"}},
	})
	th := NewThrottled(mem, 20, 1)

	ctx := context.Background()
	start := time.Now()
	for range 3 {
		got, err := th.Search(ctx, types.SearchRequest{Size: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	// The first call uses the burst token; two more wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestThrottledHonorsCancellation(t *testing.T) {
	th := NewThrottled(memory.New("mem"), 0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := th.Search(ctx, types.SearchRequest{Size: 1})
	require.NoError(t, err, "burst token is available immediately")

	cancel()
	_, err = th.Search(ctx, types.SearchRequest{Size: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThrottledDeadlineBeforeNextToken(t *testing.T) {
	th := NewThrottled(memory.New("mem"), 1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := th.Search(ctx, types.SearchRequest{Size: 1})
	require.NoError(t, err)

	start := time.Now()
	_, err = th.Search(ctx, types.SearchRequest{Size: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 900*time.Millisecond, "returns at the deadline, not the next token")
}

func TestThrottledPassesIndexCallsThrough(t *testing.T) {
	mem := memory.New("mem")
	th := NewThrottled(mem, 0.001, 1)

	n, err := th.Upload(context.Background(), []map[string]any{{"id": "a"}, {"id": "b"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, mem.Len())
}
