package paging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/lots/internal/model"
)

// State is the fetch state of a Stream.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateLoaded
	StateFailed
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Snapshot is a consistent copy of a stream's state.
type Snapshot struct {
	Key        string
	State      State
	Items      []model.Lot
	Err        error // failure of the most recent fetch; earlier pages stay in Items
	TotalCount int
	FirstPage  int
	End        bool // the last page was short; LoadMore is a no-op
	NextPage   int
	Position   int
}

// Stream is the append-only buffer of one listing key.
type Stream struct {
	key     string
	query   model.ListingQuery
	fetcher Fetcher
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	items     []model.Lot
	nextPage  int
	end       bool
	total     int
	firstPage int
	err       error
	position  int
	gen       uint64
	cancel    context.CancelFunc
	closed    bool
	changed   chan struct{}

	wg sync.WaitGroup
}

func newStream(key string, q model.ListingQuery, f Fetcher, logger *slog.Logger) *Stream {
	return &Stream{
		key:      key,
		query:    q,
		fetcher:  f,
		logger:   logger,
		nextPage: q.PageIndex,
		changed:  make(chan struct{}),
	}
}

// Key returns the stream's cache key.
func (s *Stream) Key() string { return s.key }

// Query returns the stream's query with PageIndex at the first page.
func (s *Stream) Query() model.ListingQuery { return snapshotQuery(s.query) }

// Snapshot returns a copy of the stream state.
func (s *Stream) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Items returns a copy of the buffered items.
func (s *Stream) Items() []model.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Lot(nil), s.items...)
}

// State returns the current fetch state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Changed returns a channel that is closed at the next state change.
func (s *Stream) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// Wait blocks until the stream is not fetching and returns its snapshot.
func (s *Stream) Wait(ctx context.Context) (Snapshot, error) {
	for {
		s.mu.Lock()
		if s.state != StateFetching {
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return snap, nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}

// LoadMore fetches the next page. It is a no-op, returning false, while a
// fetch is outstanding or once the end was reached. On a Failed stream it
// retries the failed page.
func (s *Stream) LoadMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	switch s.state {
	case StateFetching:
		return false
	case StateLoaded:
		if s.end {
			return false
		}
	}
	s.startLocked(s.nextPage)
	return true
}

// Retry re-fetches the failed page. It returns false unless the stream is Failed.
func (s *Stream) Retry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateFailed {
		return false
	}
	s.startLocked(s.nextPage)
	return true
}

// Refresh clears the buffer and fetches the first page again. Any
// outstanding fetch, including a LoadMore, is cancelled and its result
// discarded. The scroll position is kept.
func (s *Stream) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.refreshLocked()
}

func (s *Stream) refreshLocked() {
	s.items = nil
	s.end = false
	s.total = 0
	s.firstPage = 0
	s.nextPage = s.query.PageIndex
	s.startLocked(s.query.PageIndex)
}

// PatchItem replaces the buffered item with the given id by update(item),
// without any network call. It reports whether the item was found.
func (s *Stream) PatchItem(id int64, update func(model.Lot) model.Lot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			patched := update(s.items[i])
			patched.ID = id
			s.items[i] = patched
			s.notifyLocked()
			return true
		}
	}
	return false
}

// SetPosition records the scroll position (an item index). It survives
// Refresh and is clamped to the buffer when reported.
func (s *Stream) SetPosition(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 {
		i = 0
	}
	s.position = i
}

func (s *Stream) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateIdle {
		return
	}
	s.startLocked(s.nextPage)
}

// restart handles a repeated Stream call for this key. An in-flight fetch
// is left alone; a settled stream is refreshed.
func (s *Stream) restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	switch s.state {
	case StateIdle:
		s.startLocked(s.nextPage)
	case StateFetching:
	default:
		s.refreshLocked()
	}
}

// startLocked cancels any outstanding fetch and starts fetching page.
func (s *Stream) startLocked(page int) {
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = StateFetching
	s.err = nil
	s.notifyLocked()

	q := snapshotQuery(s.query)
	q.PageIndex = page

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		p, err := s.fetcher.FetchPage(ctx, q)
		s.apply(gen, q.PageIndex, p, err)
	}()
}

func (s *Stream) apply(gen uint64, page int, p *model.Page, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		s.logger.Debug("discarding superseded page", "key", s.key, "page", page)
		return
	}
	s.cancel()
	s.cancel = nil

	if err == nil && p == nil {
		err = &model.ServerError{Code: "empty_page", HumanMessage: "no page in response"}
	}
	if err != nil {
		s.logger.Warn("page fetch failed", "key", s.key, "page", page, "error", err)
		s.state = StateFailed
		s.err = err
		s.notifyLocked()
		return
	}

	if page == s.query.PageIndex {
		s.total = p.TotalCount
		s.firstPage = p.FirstPage
	}
	s.items = append(s.items, p.Items...)
	s.nextPage = page + 1
	s.end = len(p.Items) == 0 || len(p.Items) < s.query.PageSize
	s.state = StateLoaded
	s.notifyLocked()
}

// close detaches the stream: the outstanding fetch is cancelled, any late
// result is discarded and the stream returns to Idle for good.
func (s *Stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateIdle
	s.notifyLocked()
}

// drain waits for fetch goroutines to return.
func (s *Stream) drain() {
	s.wg.Wait()
}

func (s *Stream) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Stream) snapshotLocked() Snapshot {
	pos := s.position
	if pos > len(s.items)-1 {
		pos = max(len(s.items)-1, 0)
	}
	return Snapshot{
		Key:        s.key,
		State:      s.state,
		Items:      append([]model.Lot(nil), s.items...),
		Err:        s.err,
		TotalCount: s.total,
		FirstPage:  s.firstPage,
		End:        s.end,
		NextPage:   s.nextPage,
		Position:   pos,
	}
}
