// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fedsearch/pkg/types"
)

func seeded(t *testing.T) *Backend {
	t.Helper()
	b := New("mem")
	n, err := b.Upload(context.Background(), []map[string]any{
		{"id": "1", "title": "Harbor Inn", "city": "Seattle", ScoreField: 2.5},
		{"id": "2", "title": "Mountain Lodge", "city": "Denver", ScoreField: 1.5},
		{"id": "3", "title": "Seaside Spa", "city": "Seattle"},
		{"id": "4", "title": "Old Town Hostel", "city": "Portland", ScoreField: "0.5"},
	})
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return b
}

func ids(records []types.Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Identifier())
	}
	return out
}

func TestSearchPaging(t *testing.T) {
	b := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  types.SearchRequest
		want []string
	}{
		{"first page", types.SearchRequest{Query: "*", Size: 2}, []string{"1", "2"}},
		{"skip two", types.SearchRequest{Query: "*", Size: 2, Skip: 2}, []string{"3", "4"}},
		{"past the end", types.SearchRequest{Query: "", Size: 2, Skip: 4}, nil},
		{"term match", types.SearchRequest{Query: "seattle", Size: 10}, []string{"1", "3"}},
		{"term match with skip", types.SearchRequest{Query: "seattle", Size: 10, Skip: 1}, []string{"3"}},
		{"field restriction", types.SearchRequest{Query: "sea", Size: 10, Fields: []string{"title"}}, []string{"3"}},
		{"any term", types.SearchRequest{Query: "lodge hostel", Size: 10}, []string{"2", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Search(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestUploadScores(t *testing.T) {
	b := seeded(t)
	got, err := b.Search(context.Background(), types.SearchRequest{Query: "*", Size: 10})
	require.NoError(t, err)
	require.Len(t, got, 4)

	require.NotNil(t, got[0].Score)
	assert.Equal(t, 2.5, *got[0].Score)
	assert.Nil(t, got[2].Score, "missing score stays absent")
	require.NotNil(t, got[3].Score)
	assert.Equal(t, 0.5, *got[3].Score)
	assert.NotContains(t, got[0].Document, ScoreField)
	assert.Equal(t, "mem", got[0].Backend)
}

func TestUploadReplacesByKey(t *testing.T) {
	b := seeded(t)
	_, err := b.Upload(context.Background(), []map[string]any{{"id": "2", "title": "Mountain Lodge II"}})
	require.NoError(t, err)

	assert.Equal(t, 4, b.Len())
	got, err := b.Search(context.Background(), types.SearchRequest{Query: "*", Size: 10})
	require.NoError(t, err)
	assert.Equal(t, "Mountain Lodge II", got[1].Title())
}

func TestCreateIndexResets(t *testing.T) {
	b := seeded(t)
	require.NoError(t, b.CreateIndex(context.Background(), types.Schema{
		Fields: []types.Field{{Name: "hotelId", Type: types.FieldString, Key: true}},
	}))
	assert.Equal(t, 0, b.Len())
}

func TestSearchRejectsBadSizeAndCancelledContext(t *testing.T) {
	b := seeded(t)
	_, err := b.Search(context.Background(), types.SearchRequest{Size: 0})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Search(ctx, types.SearchRequest{Size: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewWithRecordsTagsBackend(t *testing.T) {
	b := NewWithRecords("west", []types.Record{{Document: map[string]any{"id": "a"}}})
	got, err := b.Search(context.Background(), types.SearchRequest{Size: 1})
	require.NoError(t, err)
	assert.Equal(t, "west", got[0].Backend)
}
