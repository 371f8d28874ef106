// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend constructs search backend clients from descriptors.
// Each backend kind (rest, sqlite, memory) lives in its own subpackage and
// satisfies Backend structurally; Open selects one by descriptor kind.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"github.com/pdiddy/fedsearch/internal/backend/memory"
	"github.com/pdiddy/fedsearch/internal/backend/rest"
	"github.com/pdiddy/fedsearch/internal/backend/sqlite"
	"github.com/pdiddy/fedsearch/internal/loader"
	"github.com/pdiddy/fedsearch/pkg/types"
)

// Client runs ranked searches against one backend. Implementations follow
// the backend's own continuation mechanism and return every record the
// request yields as one flat, backend-ranked slice.
type Client interface {
	Name() string
	Search(ctx context.Context, req types.SearchRequest) ([]types.Record, error)
}

// Indexer manages a backend's index. Only the setup path uses it.
type Indexer interface {
	CreateIndex(ctx context.Context, schema types.Schema) error
	Upload(ctx context.Context, docs []map[string]any) (int, error)
}

// Backend is a fully capable backend handle.
type Backend interface {
	Client
	Indexer
	Close() error
}

// Options carries process-wide settings needed by some backend kinds.
type Options struct {
	HTTP types.HTTPConfig

	// FS resolves memory-backend seed files. Defaults to the OS filesystem.
	FS afero.Fs
}

// Open constructs the backend described by desc. A non-zero RateLimit wraps
// the result in a Throttled decorator.
func Open(desc types.BackendDescriptor, opts Options) (Backend, error) {
	var (
		b   Backend
		err error
	)

	switch desc.Kind {
	case types.KindREST, "":
		timeout := opts.HTTP.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		b = &rest.Client{
			HTTP:       &http.Client{Timeout: timeout},
			Backend:    desc.Name,
			Endpoint:   desc.Endpoint,
			Collection: desc.Collection,
			APIKey:     desc.Credential,
			UserAgent:  opts.HTTP.UserAgent,
			MaxRetries: opts.HTTP.MaxRetries,
		}
	case types.KindSQLite:
		b, err = sqlite.Open(desc.Name, desc.Endpoint, desc.Collection)
	case types.KindMemory:
		mem := memory.New(desc.Name)
		if desc.Endpoint != "" {
			fs := opts.FS
			if fs == nil {
				fs = afero.NewOsFs()
			}
			docs, rerr := loader.ReadDocuments(fs, desc.Endpoint)
			if rerr != nil {
				return nil, fmt.Errorf("seeding memory backend %s: %w", desc.Name, rerr)
			}
			if _, rerr := mem.Upload(context.Background(), docs); rerr != nil {
				return nil, fmt.Errorf("seeding memory backend %s: %w", desc.Name, rerr)
			}
		}
		b = mem
	default:
		return nil, fmt.Errorf("backend %s: unknown kind %q", desc.Name, desc.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("opening backend %s: %w", desc.Name, err)
	}

	if desc.RateLimit > 0 {
		b = NewThrottled(b, desc.RateLimit, desc.Burst)
	}
	return b, nil
}

// OpenAll opens every descriptor in order. On failure the backends opened so
// far are closed.
func OpenAll(descs []types.BackendDescriptor, opts Options) ([]Backend, error) {
	out := make([]Backend, 0, len(descs))
	for _, d := range descs {
		b, err := Open(d, opts)
		if err != nil {
			CloseAll(out)
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// CloseAll closes every backend, returning the first error.
func CloseAll(backends []Backend) error {
	var first error
	for _, b := range backends {
		if err := b.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Clients narrows backends to the search-only view used by the engine.
func Clients(backends []Backend) []Client {
	out := make([]Client, len(backends))
	for i, b := range backends {
		out[i] = b
	}
	return out
}
