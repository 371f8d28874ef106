// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memory is an in-process backend holding a pre-ranked collection.
// Records are returned in insertion order; a document's "@search.score"
// field, when present, becomes the record score.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/pdiddy/fedsearch/pkg/types"
)

// ScoreField is the document key carrying a preset relevance score.
const ScoreField = "@search.score"

// Backend is a concurrency-safe in-memory collection.
type Backend struct {
	name string

	mu      sync.RWMutex
	records []types.Record
	schema  types.Schema
}

// New creates an empty backend.
func New(name string) *Backend {
	return &Backend{name: name}
}

// NewWithRecords creates a backend serving records in the given order.
func NewWithRecords(name string, records []types.Record) *Backend {
	b := New(name)
	for _, r := range records {
		r.Backend = name
		b.records = append(b.records, r)
	}
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return b.name }

// Search filters by a case-insensitive substring match of any query term
// and pages with Skip and Size. An empty or "*" query matches everything.
func (b *Backend) Search(ctx context.Context, req types.SearchRequest) ([]types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Size <= 0 {
		return nil, fmt.Errorf("memory backend %s: size must be positive", b.name)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(req.Query))
	matchAll := len(terms) == 0 || (len(terms) == 1 && terms[0] == "*")

	var out []types.Record
	seen := 0
	for _, r := range b.records {
		if !matchAll && !matches(r.Document, terms, req.Fields) {
			continue
		}
		if seen < req.Skip {
			seen++
			continue
		}
		out = append(out, r)
		if len(out) == req.Size {
			break
		}
	}
	return out, nil
}

func matches(doc map[string]any, terms, fields []string) bool {
	check := func(v any) bool {
		s := strings.ToLower(cast.ToString(v))
		for _, t := range terms {
			if strings.Contains(s, t) {
				return true
			}
		}
		return false
	}
	if len(fields) > 0 {
		for _, f := range fields {
			if v, ok := doc[f]; ok && check(v) {
				return true
			}
		}
		return false
	}
	for _, v := range doc {
		if check(v) {
			return true
		}
	}
	return false
}

// CreateIndex records the schema and clears the collection.
func (b *Backend) CreateIndex(_ context.Context, schema types.Schema) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.schema = schema
	b.records = nil
	return nil
}

// Upload appends docs, replacing any existing document with the same key.
func (b *Backend) Upload(_ context.Context, docs []map[string]any) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := b.schema.KeyField()
	index := make(map[string]int, len(b.records))
	for i, r := range b.records {
		if k := cast.ToString(r.Document[key]); k != "" {
			index[k] = i
		}
	}

	for _, doc := range docs {
		rec := types.Record{Backend: b.name, Document: make(map[string]any, len(doc))}
		for k, v := range doc {
			if k == ScoreField {
				if f, err := cast.ToFloat64E(v); err == nil {
					rec.Score = types.Score(f)
				}
				continue
			}
			rec.Document[k] = v
		}
		k := cast.ToString(rec.Document[key])
		if i, ok := index[k]; ok && k != "" {
			b.records[i] = rec
			continue
		}
		if k != "" {
			index[k] = len(b.records)
		}
		b.records = append(b.records, rec)
	}
	return len(docs), nil
}

// Len returns the number of stored records.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Close is a no-op.
func (b *Backend) Close() error { return nil }
