// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federate

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pdiddy/fedsearch/internal/backend"
	"github.com/pdiddy/fedsearch/internal/backend/memory"
	"github.com/pdiddy/fedsearch/pkg/types"
)

// mockClient is a testify mock of backend.Client.
type mockClient struct {
	mock.Mock
	name string
}

func newMock(name string) *mockClient { return &mockClient{name: name} }

func (m *mockClient) Name() string { return m.name }

func (m *mockClient) Search(ctx context.Context, req types.SearchRequest) ([]types.Record, error) {
	args := m.Called(ctx, req)
	recs, _ := args.Get(0).([]types.Record)
	return recs, args.Error(1)
}

// ranked builds a memory backend whose records carry the given scores in
// order. A nil entry produces a record without a score. Record ids are
// "<name>-<position>".
func ranked(name string, scores ...any) *memory.Backend {
	records := make([]types.Record, len(scores))
	for i, s := range scores {
		r := types.Record{Document: map[string]any{"id": fmt.Sprintf("%s-%d", name, i)}}
		switch v := s.(type) {
		case float64:
			r.Score = types.Score(v)
		case int:
			r.Score = types.Score(float64(v))
		}
		records[i] = r
	}
	return memory.NewWithRecords(name, records)
}

func clients(bs ...backend.Client) []backend.Client { return bs }

func recordIDs(records []types.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Identifier()
	}
	return out
}

// slowClient delays every search and honors cancellation.
type slowClient struct {
	backend.Client
	delay time.Duration
}

func (s slowClient) Search(ctx context.Context, req types.SearchRequest) ([]types.Record, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Client.Search(ctx, req)
}

// stallAfterFirst answers the first fetch and blocks on later ones until the
// context ends.
type stallAfterFirst struct {
	backend.Client
}

func (s stallAfterFirst) Search(ctx context.Context, req types.SearchRequest) ([]types.Record, error) {
	if req.Skip == 0 {
		return s.Client.Search(ctx, req)
	}
	<-ctx.Done()
	return nil, ctx.Err()
}
