// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federate

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fedsearch/pkg/types"
)

func samplePage() Page {
	return Page{
		Number:    2,
		Requested: 2,
		PageSize:  10,
		Records: []types.Record{
			{Backend: "east", Score: types.Score(3.5), Document: map[string]any{"id": "h1", "title": "Harbor Inn"}},
			{Backend: "local", Document: map[string]any{"hotelId": "h2", "hotelName": strings.Repeat("Long Name ", 10)}},
		},
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(samplePage(), &buf)
	out := buf.String()

	assert.Contains(t, out, "Rank")
	assert.Contains(t, out, "21     east")
	assert.Contains(t, out, "3.5000")
	assert.Contains(t, out, "Harbor Inn")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "page 2, 2 result(s)")

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[3], "  -  ", "absent score renders as a dash")
}

func TestFormatTableEmptyAndPartial(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(Page{Number: 0, Requested: 3, PageSize: 10, FailedBackends: []string{"west"}, Partial: true}, &buf)

	assert.Contains(t, buf.String(), "No results found.")
	assert.Contains(t, buf.String(), "partial: west failed")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "Harbor Inn", 12, "Harbor Inn"},
		{"exact", "Harbor Inn", 10, "Harbor Inn"},
		{"ascii", "Harbor Inn and Suites", 12, "Harbor In..."},
		{"multibyte fits by runes", "Hôtel Élysée", 12, "Hôtel Élysée"},
		{"multibyte cut on rune boundary", "Hôtel Étoile Ouest", 8, "Hôtel..."},
		{"cjk", "東京ステーションホテル", 6, "東京ス..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(samplePage(), &buf))

	var got struct {
		Page    int `json:"page"`
		Records []struct {
			Backend string   `json:"backend"`
			Score   *float64 `json:"score"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.Page)
	require.Len(t, got.Records, 2)
	assert.Equal(t, 3.5, *got.Records[0].Score)
	assert.Nil(t, got.Records[1].Score)
	assert.NotContains(t, buf.String(), "failed_backends")
}

func TestFormatYAML(t *testing.T) {
	page := samplePage()
	page.Partial = true
	page.FailedBackends = []string{"west"}

	var buf bytes.Buffer
	require.NoError(t, FormatYAML(page, &buf))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got["page"])
	assert.Equal(t, true, got["partial"])
	assert.Equal(t, []any{"west"}, got["failed_backends"])
}
