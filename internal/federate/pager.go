// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package federate merges ranked, paginated results from several search
// backends into one stream and cuts it into fixed-size pages.
//
// Each query session runs in rounds. A round fetches one remote page of
// pageSize records from every active backend in parallel, merges them by
// score, and appends the merged batch to the page window. Pages close as the
// window fills; the session stops when the requested page closes or every
// backend is exhausted.
package federate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/fedsearch/internal/backend"
	"github.com/pdiddy/fedsearch/internal/logger"
	"github.com/pdiddy/fedsearch/pkg/types"
)

// Page size bounds accepted by Paginate.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

// Request is one paginate call.
type Request struct {
	Query      string
	PageSize   int
	PageNumber int

	// Fields restricts matching to these document fields. Empty means all.
	Fields []string
}

// Validate rejects requests that must not reach any backend.
func (r Request) Validate() error {
	if r.PageSize < MinPageSize || r.PageSize > MaxPageSize {
		return invalidf("page size %d outside [%d, %d]", r.PageSize, MinPageSize, MaxPageSize)
	}
	if r.PageNumber < 0 {
		return invalidf("page number %d is negative", r.PageNumber)
	}
	for _, f := range r.Fields {
		if strings.TrimSpace(f) == "" {
			return invalidf("empty search field")
		}
		if strings.Contains(f, ",") {
			return invalidf("search field %q contains a comma", f)
		}
	}
	return nil
}

// Page is the window a session ended on.
type Page struct {
	// Number is the page index reached. It is lower than Requested when the
	// backends ran out before the requested page.
	Number    int `json:"page" yaml:"page"`
	Requested int `json:"requested" yaml:"requested"`
	PageSize  int `json:"page_size" yaml:"page_size"`

	Records []types.Record `json:"records" yaml:"records"`

	// Partial is set when backends were excluded or the session was cut short.
	Partial        bool     `json:"partial,omitempty" yaml:"partial,omitempty"`
	FailedBackends []string `json:"failed_backends,omitempty" yaml:"failed_backends,omitempty"`
}

// Reached reports whether the page is the one numbered n.
func (p Page) Reached(n int) bool { return p.Number == n }

// Overrun reports whether the backends ran out before the requested page.
func (p Page) Overrun() bool { return p.Number < p.Requested }

// Empty reports whether the page holds no records.
func (p Page) Empty() bool { return len(p.Records) == 0 }

// Engine runs query sessions over an ordered set of backends. Backend order
// decides the merge order of equal scores.
type Engine struct {
	clients        []backend.Client
	degraded       bool
	sessionTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithDegraded excludes failing backends instead of aborting the session.
func WithDegraded(on bool) Option {
	return func(e *Engine) { e.degraded = on }
}

// WithSessionTimeout bounds every Paginate call. Zero disables the bound.
func WithSessionTimeout(d time.Duration) Option {
	return func(e *Engine) { e.sessionTimeout = d }
}

// New builds an engine over clients. Names must be non-empty and unique.
func New(clients []backend.Client, opts ...Option) (*Engine, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("%w: no backends configured", ErrConfiguration)
	}
	seen := make(map[string]bool, len(clients))
	for i, c := range clients {
		if c == nil {
			return nil, fmt.Errorf("%w: backend %d is nil", ErrConfiguration, i)
		}
		name := c.Name()
		if name == "" {
			return nil, fmt.Errorf("%w: backend %d has no name", ErrConfiguration, i)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate backend name %q", ErrConfiguration, name)
		}
		seen[name] = true
	}

	e := &Engine{clients: clients}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Backends returns the backend names in merge order.
func (e *Engine) Backends() []string {
	names := make([]string, len(e.clients))
	for i, c := range e.clients {
		names[i] = c.Name()
	}
	return names
}

// Paginate runs one query session and returns the requested page, or the
// last page reached if the backends run out first. Compare Page.Number with
// the requested number to detect an overrun.
//
// A backend failure aborts the session with a *BackendError unless the
// engine is degraded. Cancellation or session timeout returns a
// *CancelledError holding the records collected so far.
func (e *Engine) Paginate(ctx context.Context, req Request) (Page, error) {
	if err := req.Validate(); err != nil {
		return Page{}, err
	}
	if e.sessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.sessionTimeout)
		defer cancel()
	}

	log := logger.ForSession(uuid.NewString())
	log.Debug("query=%q page_size=%d page=%d backends=%d degraded=%t",
		req.Query, req.PageSize, req.PageNumber, len(e.clients), e.degraded)

	fetcher := newRoundFetcher(e.clients, req, e.degraded, log)
	cur := newPageCursor(req)

	for {
		switch cur.state {
		case stateFetching:
			if len(fetcher.active()) == 0 {
				cur.state = stateDone
				continue
			}
			pages, failed, err := fetcher.runRound(ctx)
			if err != nil {
				if ctx.Err() != nil {
					page := cur.page()
					page.Partial = true
					log.Debug("cancelled at page %d: %v", page.Number, ctx.Err())
					return Page{}, &CancelledError{Page: page, Err: ctx.Err()}
				}
				return Page{}, err
			}
			cur.failed = append(cur.failed, failed...)
			cur.load(Merge(pages))

		case stateAccumulating:
			cur.accumulate()

		case statePageClosed:
			if cur.index == cur.target {
				log.Debug("page %d closed with %d record(s)", cur.index, len(cur.window))
				return cur.page(), nil
			}
			cur.next()

		case stateDone:
			log.Debug("backends exhausted at page %d (requested %d)", cur.index, cur.target)
			return cur.page(), nil
		}
	}
}

type cursorState int

const (
	stateFetching cursorState = iota
	stateAccumulating
	statePageClosed
	stateDone
)

// pageCursor re-chunks the merged stream into pages of size records. It is
// used for one session only.
type pageCursor struct {
	state  cursorState
	size   int
	target int

	index  int
	window []types.Record

	batch MergedBatch
	pos   int

	failed []string
}

func newPageCursor(req Request) *pageCursor {
	return &pageCursor{
		state:  stateFetching,
		size:   req.PageSize,
		target: req.PageNumber,
		window: make([]types.Record, 0, req.PageSize),
	}
}

// load hands a merged batch to the cursor.
func (c *pageCursor) load(batch MergedBatch) {
	c.batch, c.pos = batch, 0
	c.state = stateAccumulating
}

// accumulate appends batch records until the window fills or the batch is
// used up.
func (c *pageCursor) accumulate() {
	for c.pos < len(c.batch) {
		c.window = append(c.window, c.batch[c.pos])
		c.pos++
		if len(c.window) == c.size {
			c.state = statePageClosed
			return
		}
	}
	c.batch, c.pos = nil, 0
	c.state = stateFetching
}

// next discards a closed, non-target page and resumes the current batch.
func (c *pageCursor) next() {
	c.window = make([]types.Record, 0, c.size)
	c.index++
	c.state = stateAccumulating
}

func (c *pageCursor) page() Page {
	p := Page{
		Number:    c.index,
		Requested: c.target,
		PageSize:  c.size,
		Records:   make([]types.Record, len(c.window)),
	}
	copy(p.Records, c.window)
	if len(c.failed) > 0 {
		p.Partial = true
		p.FailedBackends = append([]string(nil), c.failed...)
	}
	return p
}
