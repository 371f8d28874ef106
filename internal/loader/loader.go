// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader reads document and schema files for the setup path and
// pushes documents to a backend in fixed-size batches.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fedsearch/pkg/types"
)

// DefaultBatchSize is used when Upload is given a non-positive batch size.
const DefaultBatchSize = 100

// Uploader accepts a batch of documents.
type Uploader interface {
	Name() string
	Upload(ctx context.Context, docs []map[string]any) (int, error)
}

// documentFile is the wrapped form: {"value": [...]} in JSON and YAML, or
// [[documents]] tables in TOML.
type documentFile struct {
	Value     []map[string]any `json:"value" yaml:"value"`
	Documents []map[string]any `json:"documents" yaml:"documents" toml:"documents"`
}

// ReadDocuments parses a .json, .yaml/.yml, or .toml file of documents. JSON
// and YAML accept either a top-level list or a {"value": [...]} wrapper.
func ReadDocuments(fs afero.Fs, path string) ([]map[string]any, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading documents file: %w", err)
	}

	var docs []map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		docs, err = decodeJSONDocuments(data)
	case ".yaml", ".yml":
		docs, err = decodeYAMLDocuments(data)
	case ".toml":
		var f documentFile
		err = toml.Unmarshal(data, &f)
		docs = f.Documents
	default:
		return nil, fmt.Errorf("unsupported documents format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing documents file %s: %w", path, err)
	}
	return docs, nil
}

func decodeJSONDocuments(data []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []map[string]any
		err := json.Unmarshal(trimmed, &docs)
		return docs, err
	}
	var f documentFile
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, err
	}
	if f.Value != nil {
		return f.Value, nil
	}
	return f.Documents, nil
}

func decodeYAMLDocuments(data []byte) ([]map[string]any, error) {
	var docs []map[string]any
	if err := yaml.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}
	var f documentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Value != nil {
		return f.Value, nil
	}
	return f.Documents, nil
}

// ReadSchema parses a schema file in YAML, TOML, or JSON.
func ReadSchema(fs afero.Fs, path string) (types.Schema, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return types.Schema{}, fmt.Errorf("reading schema file: %w", err)
	}
	var schema types.Schema
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &schema)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &schema)
	case ".toml":
		err = toml.Unmarshal(data, &schema)
	default:
		return types.Schema{}, fmt.Errorf("unsupported schema format %q", ext)
	}
	if err != nil {
		return types.Schema{}, fmt.Errorf("parsing schema file %s: %w", path, err)
	}
	if len(schema.Fields) == 0 {
		return types.Schema{}, fmt.Errorf("schema file %s defines no fields", path)
	}
	return schema, nil
}

// AssignKeys normalizes every document's key field to a string and fills
// missing keys with random UUIDs. It returns the number of keys generated.
func AssignKeys(docs []map[string]any, keyField string) int {
	generated := 0
	for _, d := range docs {
		k := strings.TrimSpace(cast.ToString(d[keyField]))
		if k == "" {
			k = uuid.NewString()
			generated++
		}
		d[keyField] = k
	}
	return generated
}

// Summary counts the outcome of an Upload run.
type Summary struct {
	Batches  int
	Uploaded int
	Failed   int
}

// Upload sends docs to up in batches of batchSize, writing one progress line
// per batch to w. A failed batch is counted and reported; the run continues
// and the returned error reports how many batches failed.
func Upload(ctx context.Context, up Uploader, docs []map[string]any, batchSize int, w io.Writer) (Summary, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var summary Summary
	var failedBatches int
	for start := 0; start < len(docs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		end := min(start+batchSize, len(docs))
		batch := docs[start:end]
		summary.Batches++

		n, err := up.Upload(ctx, batch)
		summary.Uploaded += n
		if err != nil {
			summary.Failed += len(batch) - n
			failedBatches++
			fmt.Fprintf(w, "failed   %s batch %d (%d docs): %v\n", up.Name(), summary.Batches, len(batch), err)
			continue
		}
		fmt.Fprintf(w, "uploaded %s batch %d (%d docs)\n", up.Name(), summary.Batches, n)
	}

	fmt.Fprintf(w, "\nuploaded: %d, failed: %d, batches: %d\n", summary.Uploaded, summary.Failed, summary.Batches)
	if failedBatches > 0 {
		return summary, fmt.Errorf("%d of %d batch(es) failed for %s", failedBatches, summary.Batches, up.Name())
	}
	return summary, nil
}
