// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rest is a client for JSON search services exposing an index/docs
// REST surface: POST /indexes/{index}/docs/search for ranked queries,
// PUT /indexes/{index} for schema management, and POST
// /indexes/{index}/docs/index for bulk upload. A search may be answered in
// several continuation sub-pages; the client follows them and returns one
// flat slice.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/fedsearch/internal/httputil"
	"github.com/pdiddy/fedsearch/pkg/types"
)

// APIVersion is sent as the api-version query parameter.
const APIVersion = "2023-11-01"

// maxSubPages bounds continuation following for a single search call.
const maxSubPages = 64

const (
	scoreKey        = "@search.score"
	nextParamsKey   = "@search.nextPageParameters"
	annotationStart = "@"
)

// Client talks to one index on one service.
type Client struct {
	HTTP       *http.Client
	Backend    string
	Endpoint   string
	Collection string
	APIKey     string
	UserAgent  string
	MaxRetries int
}

// Name returns the backend identifier.
func (c *Client) Name() string { return c.Backend }

// Close releases idle connections.
func (c *Client) Close() error {
	if c.HTTP != nil {
		c.HTTP.CloseIdleConnections()
	}
	return nil
}

// Search issues one ranked query and follows continuation sub-pages until
// the service stops returning next-page parameters.
func (c *Client) Search(ctx context.Context, req types.SearchRequest) ([]types.Record, error) {
	query := req.Query
	if strings.TrimSpace(query) == "" {
		query = "*"
	}

	body := searchBody{
		Search: query,
		Top:    req.Size,
		Skip:   req.Skip,
	}
	if len(req.Fields) > 0 {
		body.SearchFields = strings.Join(req.Fields, ",")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding search body: %w", err)
	}

	endpoint := c.indexURL("docs", "search")
	var records []types.Record
	for sub := 0; ; sub++ {
		if sub >= maxSubPages {
			return nil, fmt.Errorf("%s: more than %d continuation pages", c.Backend, maxSubPages)
		}

		var sr searchResponse
		if err := c.do(ctx, http.MethodPost, endpoint, payload, &sr, http.StatusOK); err != nil {
			return nil, err
		}

		for _, raw := range sr.Value {
			rec, err := decodeHit(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: parsing hit: %w", c.Backend, err)
			}
			rec.Backend = c.Backend
			records = append(records, rec)
		}

		if len(sr.NextPageParameters) == 0 || string(sr.NextPageParameters) == "null" {
			return records, nil
		}
		payload = sr.NextPageParameters
	}
}

// CreateIndex creates or updates the index definition.
func (c *Client) CreateIndex(ctx context.Context, schema types.Schema) error {
	def := indexDefinition{Name: c.Collection}
	for _, f := range schema.Fields {
		def.Fields = append(def.Fields, indexField{
			Name:       f.Name,
			Type:       edmType(f.Type),
			Key:        f.Key,
			Searchable: f.Searchable && f.Type == types.FieldString,
		})
	}
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encoding index definition: %w", err)
	}
	return c.do(ctx, http.MethodPut, c.indexURL(), payload, nil, http.StatusOK, http.StatusCreated, http.StatusNoContent)
}

// Upload merges-or-uploads docs in a single batch and returns the number the
// service accepted. Rejected documents are reported in the error.
func (c *Client) Upload(ctx context.Context, docs []map[string]any) (int, error) {
	batch := indexBatch{Value: make([]map[string]any, 0, len(docs))}
	for _, d := range docs {
		action := make(map[string]any, len(d)+1)
		for k, v := range d {
			action[k] = v
		}
		action["@search.action"] = "mergeOrUpload"
		batch.Value = append(batch.Value, action)
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		return 0, fmt.Errorf("encoding upload batch: %w", err)
	}

	var res indexResult
	if err := c.do(ctx, http.MethodPost, c.indexURL("docs", "index"), payload, &res, http.StatusOK, http.StatusMultiStatus); err != nil {
		return 0, err
	}

	ok := 0
	var failed []string
	for _, r := range res.Value {
		if r.Status {
			ok++
			continue
		}
		failed = append(failed, fmt.Sprintf("%s (%s)", r.Key, r.ErrorMessage))
	}
	if len(failed) > 0 {
		return ok, fmt.Errorf("%s: %d document(s) rejected: %s", c.Backend, len(failed), strings.Join(failed, "; "))
	}
	return ok, nil
}

func (c *Client) indexURL(parts ...string) string {
	segs := append([]string{"indexes", url.PathEscape(c.Collection)}, parts...)
	return strings.TrimRight(c.Endpoint, "/") + "/" + strings.Join(segs, "/") + "?api-version=" + APIVersion
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, out any, okStatus ...int) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("api-key", c.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.Backend, err)
	}
	defer resp.Body.Close()

	if !statusIn(resp.StatusCode, okStatus) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned HTTP %d: %s", c.Backend, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s response: %w", c.Backend, err)
	}
	return nil
}

func statusIn(code int, allowed []int) bool {
	for _, s := range allowed {
		if code == s {
			return true
		}
	}
	return false
}

// decodeHit splits a raw hit into its score annotation and document payload.
func decodeHit(raw json.RawMessage) (types.Record, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return types.Record{}, err
	}

	rec := types.Record{Document: make(map[string]any, len(fields))}
	for k, v := range fields {
		if k == scoreKey {
			if n, ok := v.(json.Number); ok {
				f, err := n.Float64()
				if err != nil {
					return types.Record{}, fmt.Errorf("score %q: %w", n, err)
				}
				rec.Score = types.Score(f)
			}
			continue
		}
		if strings.HasPrefix(k, annotationStart) {
			continue
		}
		rec.Document[k] = v
	}
	return rec, nil
}

func edmType(t types.FieldType) string {
	switch t {
	case types.FieldInt:
		return "Edm.Int64"
	case types.FieldDouble:
		return "Edm.Double"
	case types.FieldBool:
		return "Edm.Boolean"
	default:
		return "Edm.String"
	}
}

// Wire structures.
type searchBody struct {
	Search       string `json:"search"`
	Top          int    `json:"top"`
	Skip         int    `json:"skip"`
	SearchFields string `json:"searchFields,omitempty"`
}

type searchResponse struct {
	Value              []json.RawMessage `json:"value"`
	NextPageParameters json.RawMessage   `json:"@search.nextPageParameters"`
}

type indexDefinition struct {
	Name   string       `json:"name"`
	Fields []indexField `json:"fields"`
}

type indexField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Key        bool   `json:"key,omitempty"`
	Searchable bool   `json:"searchable,omitempty"`
}

type indexBatch struct {
	Value []map[string]any `json:"value"`
}

type indexResult struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"value"`
}
