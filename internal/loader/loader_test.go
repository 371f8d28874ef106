// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fedsearch/pkg/types"
)

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestReadDocuments(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/docs/list.json":    `[{"id":"1","title":"a"},{"id":"2","title":"b"}]`,
		"/docs/wrapped.json": `{"value":[{"id":"1","title":"a"},{"id":"2","title":"b"}]}`,
		"/docs/list.yaml":    "- id: \"1\"\n  title: a\n- id: \"2\"\n  title: b\n",
		"/docs/wrapped.yml":  "value:\n  - id: \"1\"\n    title: a\n  - id: \"2\"\n    title: b\n",
		"/docs/docs.toml":    "[[documents]]\nid = \"1\"\ntitle = \"a\"\n\n[[documents]]\nid = \"2\"\ntitle = \"b\"\n",
	})

	for _, path := range []string{"/docs/list.json", "/docs/wrapped.json", "/docs/list.yaml", "/docs/wrapped.yml", "/docs/docs.toml"} {
		t.Run(path, func(t *testing.T) {
			docs, err := ReadDocuments(fs, path)
			require.NoError(t, err)
			require.Len(t, docs, 2)
			assert.Equal(t, "1", docs[0]["id"])
			assert.Equal(t, "b", docs[1]["title"])
		})
	}
}

func TestReadDocumentsErrors(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/bad.json": `{"value":[`,
		"/docs.csv": "id,title\n",
	})

	_, err := ReadDocuments(fs, "/bad.json")
	assert.ErrorContains(t, err, "parsing documents file")

	_, err = ReadDocuments(fs, "/docs.csv")
	assert.ErrorContains(t, err, "unsupported")

	_, err = ReadDocuments(fs, "/missing.json")
	assert.ErrorContains(t, err, "reading documents file")
}

func TestReadSchema(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/schema.yaml": `fields:
  - name: hotelId
    type: string
    key: true
  - name: title
    type: string
    searchable: true
`,
		"/schema.toml": `[[fields]]
name = "hotelId"
type = "string"
key = true

[[fields]]
name = "title"
type = "string"
searchable = true
`,
		"/empty.json": `{"fields":[]}`,
	})

	for _, path := range []string{"/schema.yaml", "/schema.toml"} {
		t.Run(path, func(t *testing.T) {
			s, err := ReadSchema(fs, path)
			require.NoError(t, err)
			assert.Equal(t, "hotelId", s.KeyField())
			assert.Equal(t, []string{"title"}, s.SearchableFields())
		})
	}

	_, err := ReadSchema(fs, "/empty.json")
	assert.ErrorContains(t, err, "no fields")
}

func TestAssignKeys(t *testing.T) {
	docs := []map[string]any{
		{"id": 7, "title": "numeric key"},
		{"title": "no key"},
		{"id": "  ", "title": "blank key"},
	}
	generated := AssignKeys(docs, "id")

	assert.Equal(t, 2, generated)
	assert.Equal(t, "7", docs[0]["id"])
	_, err := uuid.Parse(docs[1]["id"].(string))
	assert.NoError(t, err)
	assert.NotEqual(t, docs[1]["id"], docs[2]["id"])
}

type recordingUploader struct {
	batches [][]map[string]any
	failOn  int
}

func (r *recordingUploader) Name() string { return "rec" }

func (r *recordingUploader) Upload(_ context.Context, docs []map[string]any) (int, error) {
	r.batches = append(r.batches, docs)
	if len(r.batches) == r.failOn {
		return 0, errors.New("service unavailable")
	}
	return len(docs), nil
}

func makeDocs(n int) []map[string]any {
	docs := make([]map[string]any, n)
	for i := range docs {
		docs[i] = map[string]any{"id": i}
	}
	return docs
}

func TestUploadBatches(t *testing.T) {
	up := &recordingUploader{}
	var buf bytes.Buffer

	summary, err := Upload(context.Background(), up, makeDocs(250), 100, &buf)
	require.NoError(t, err)

	assert.Equal(t, Summary{Batches: 3, Uploaded: 250}, summary)
	require.Len(t, up.batches, 3)
	assert.Len(t, up.batches[2], 50)
	assert.Contains(t, buf.String(), "uploaded: 250, failed: 0, batches: 3")
}

func TestUploadContinuesAfterFailedBatch(t *testing.T) {
	up := &recordingUploader{failOn: 2}
	var buf bytes.Buffer

	summary, err := Upload(context.Background(), up, makeDocs(5), 2, &buf)
	require.Error(t, err)

	assert.Equal(t, Summary{Batches: 3, Uploaded: 3, Failed: 2}, summary)
	assert.Contains(t, buf.String(), "failed   rec batch 2")
}

func TestUploadDefaultBatchSizeAndCancel(t *testing.T) {
	up := &recordingUploader{}
	summary, err := Upload(context.Background(), up, makeDocs(DefaultBatchSize+1), 0, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Batches)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Upload(ctx, &recordingUploader{}, makeDocs(3), 1, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchemaHelpersDefaultKey(t *testing.T) {
	assert.Equal(t, "id", types.Schema{}.KeyField())
}
