// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the federated search engine.
// Backend descriptors are produced by the configuration layer and read by the
// backend constructors; records flow from backend clients through the merge
// engine to the output formatters.
package types

import (
	"strings"

	"github.com/spf13/cast"
)

// Backend kinds understood by backend.Open.
const (
	KindREST   = "rest"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// BackendDescriptor identifies one remote search endpoint. It is immutable for
// the lifetime of a query session.
type BackendDescriptor struct {
	// Name is the backend identity shown next to every record it produces.
	Name string `json:"name" yaml:"name" toml:"name" mapstructure:"name"`

	// Kind selects the client implementation: rest, sqlite, or memory.
	Kind string `json:"kind" yaml:"kind" toml:"kind" mapstructure:"kind"`

	// Endpoint is the service base URL (rest) or the database path (sqlite).
	Endpoint string `json:"endpoint" yaml:"endpoint" toml:"endpoint" mapstructure:"endpoint"`

	// Credential is the API key sent to the service. Empty falls back to the
	// "<name>-api-key" secret.
	Credential string `json:"credential,omitempty" yaml:"credential,omitempty" toml:"credential,omitempty" mapstructure:"credential"`

	// Collection is the index (or table) holding the backend's partition.
	Collection string `json:"collection" yaml:"collection" toml:"collection" mapstructure:"collection"`

	// RateLimit caps fetches per second against this backend. Zero disables throttling.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty" toml:"rate_limit,omitempty" mapstructure:"rate_limit"`

	// Burst is the token bucket size used with RateLimit (default 1).
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty" toml:"burst,omitempty" mapstructure:"burst"`
}

// Record is one backend-returned document tagged with its relevance score and
// the name of the backend that produced it. A nil Score means the backend did
// not rank the document.
type Record struct {
	Backend  string         `json:"backend" yaml:"backend"`
	Score    *float64       `json:"score" yaml:"score"`
	Document map[string]any `json:"document" yaml:"document"`
}

// Score returns a pointer to v, for building records with a present score.
func Score(v float64) *float64 { return &v }

// identifierKeys and titleKeys are probed in order when displaying a record.
var (
	identifierKeys = []string{"id", "key", "identifier", "hotelId", "HotelId"}
	titleKeys      = []string{"title", "name", "hotelName", "HotelName"}
)

// Identifier returns the document key, or "" when the payload has none.
func (r Record) Identifier() string {
	return lookup(r.Document, identifierKeys)
}

// Title returns a human-readable title, or "" when the payload has none.
func (r Record) Title() string {
	return lookup(r.Document, titleKeys)
}

func lookup(doc map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			if s := strings.TrimSpace(cast.ToString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

// SearchRequest is one remote query: at most Size records starting after the
// first Skip records of the backend's ranking, matched against Fields (all
// searchable fields when empty).
type SearchRequest struct {
	Query  string
	Size   int
	Skip   int
	Fields []string
}
