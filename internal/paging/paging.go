// Package paging serves infinite-scroll listing results keyed by the compiled
// listing query.
//
// An Engine belongs to one screen and owns one current Stream. A Stream runs
// the per-key state machine
//
//	Idle -> Fetching -> Loaded | Failed
//	Loaded | Failed -> Fetching   (LoadMore, Retry, Refresh)
//
// with at most one outstanding fetch. A newer fetch cancels the older one and
// the older result is discarded when it eventually arrives. Engines do not
// coordinate with each other, so different keys fetch independently.
package paging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/lots/internal/model"
	"github.com/alfredjeanlab/lots/internal/query"
)

// Fetcher loads one page of a listing. Implementations must honor ctx
// cancellation where they can; results of cancelled fetches are discarded
// either way.
type Fetcher interface {
	FetchPage(ctx context.Context, q model.ListingQuery) (*model.Page, error)
}

// Engine holds the current listing stream of one screen.
type Engine struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu      sync.Mutex
	current *Stream
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine fetching through f.
func New(f Fetcher, opts ...Option) *Engine {
	e := &Engine{fetcher: f, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream returns the stream for q. A query whose cache key differs from the
// current stream's starts a fresh buffer and detaches the old stream,
// cancelling its fetch. The same key returns the current stream: while its
// fetch is in flight nothing new is requested, otherwise the stream restarts
// from the first page as Refresh does, keeping its scroll position.
//
// The query, including its filter slice, is copied; the caller keeps
// ownership of its own filter state.
func (e *Engine) Stream(q model.ListingQuery) *Stream {
	key := query.CacheKey(q)

	e.mu.Lock()
	defer e.mu.Unlock()

	if s := e.current; s != nil && s.key == key {
		s.restart()
		return s
	}
	if e.current != nil {
		e.logger.Debug("listing key changed", "from", e.current.key, "to", key)
		e.current.close()
	}
	s := newStream(key, snapshotQuery(q), e.fetcher, e.logger)
	e.current = s
	s.start()
	return s
}

// Current returns the current stream, or nil before the first Stream call.
func (e *Engine) Current() *Stream {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// LoadMore calls LoadMore on the current stream.
func (e *Engine) LoadMore() bool {
	if s := e.Current(); s != nil {
		return s.LoadMore()
	}
	return false
}

// Refresh calls Refresh on the current stream.
func (e *Engine) Refresh() {
	if s := e.Current(); s != nil {
		s.Refresh()
	}
}

// PatchItem calls PatchItem on the current stream.
func (e *Engine) PatchItem(id int64, update func(model.Lot) model.Lot) bool {
	if s := e.Current(); s != nil {
		return s.PatchItem(id, update)
	}
	return false
}

// Close detaches the current stream and waits for its fetch goroutine.
func (e *Engine) Close() {
	e.mu.Lock()
	s := e.current
	e.current = nil
	e.mu.Unlock()
	if s != nil {
		s.close()
		s.drain()
	}
}

func snapshotQuery(q model.ListingQuery) model.ListingQuery {
	q.Filters = append([]model.Filter(nil), q.Filters...)
	if q.Sort != nil {
		sort := *q.Sort
		q.Sort = &sort
	}
	if q.Search != nil {
		search := *q.Search
		q.Search = &search
	}
	return q
}
