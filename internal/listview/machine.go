// Package listview holds the state machine behind a paginated list view:
// search text, field selectors, sort, page and filters on one side, the
// last accepted page of results on the other.
package listview

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssis-app/ssis/internal/invalidate"
	"github.com/ssis-app/ssis/internal/pkg/clock"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// DefaultDebounce is how long search typing must pause before a query is sent.
const DefaultDebounce = 300 * time.Millisecond

// Lister fetches one page of a resource.
type Lister[T any] interface {
	List(ctx context.Context, p query.Params) (query.Page[T], error)
}

// State is a snapshot of the list view.
type State[T any] struct {
	// Search is the text carried by requests. Typed is what the user has
	// entered; it becomes Search once the debounce interval elapses.
	Search    string
	Typed     string
	SearchBy  string
	SortBy    string
	Order     query.Order
	Page      int
	PerPage   int
	Filters   query.Filters
	Items     []T
	Total     int
	Pages     int
	IsLoading bool
	// Version increases with every published change.
	Version uint64
}

// Options configures a Machine.
type Options struct {
	// Debounce overrides DefaultDebounce.
	Debounce time.Duration
	// PerPage overrides the resource's default page size.
	PerPage int
	// ResetPageOnChange moves back to page 1 whenever search, searchBy,
	// sort or filters change.
	ResetPageOnChange bool
	// Clock drives the debounce timer. Defaults to the wall clock.
	Clock clock.Clock
	// Bus, when set, re-queries the list on invalidations of the resource.
	Bus    *invalidate.Bus
	Logger zerolog.Logger
}

// Machine is the list state machine for one resource. All methods are safe
// for concurrent use.
type Machine[T any] struct {
	lister   Lister[T]
	resource query.Resource
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State[T]
	seq      uint64 // last issued request
	debounce clock.Timer
	typed    uint64 // bumped by every SetSearch
	closed   bool

	pubMu     sync.Mutex
	published uint64
	subs      map[chan State[T]]struct{}

	stopBus func()
	wg      sync.WaitGroup

	// settled, when set, is told how each response was handled.
	settled func(seq uint64, applied bool)
}

// New creates a machine in the initial state. No request is sent until
// Start is called.
func New[T any](lister Lister[T], r query.Resource, opts Options) *Machine[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	params := query.DefaultParams(r)
	if opts.PerPage > 0 {
		params.PerPage = opts.PerPage
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine[T]{
		lister:   lister,
		resource: r,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		subs:     map[chan State[T]]struct{}{},
		state: State[T]{
			Search:   params.Search,
			Typed:    params.Search,
			SearchBy: params.SearchBy,
			SortBy:   params.SortBy,
			Order:    params.Order,
			Page:     params.Page,
			PerPage:  params.PerPage,
			Items:    []T{},
		},
	}

	if opts.Bus != nil {
		signals, stop := opts.Bus.Subscribe(r.Name)
		m.stopBus = stop
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for range signals {
				m.Refresh()
			}
		}()
	}
	return m
}

// Resource returns the resource this machine lists.
func (m *Machine[T]) Resource() query.Resource {
	return m.resource
}

// Start issues the initial query.
func (m *Machine[T]) Start() {
	m.mutate(func(*State[T]) bool { return true })
}

// State returns the current snapshot.
func (m *Machine[T]) State() State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Params returns the request the current state maps to.
func (m *Machine[T]) Params() query.Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paramsLocked()
}

// Subscribe returns a channel that always holds the latest snapshot not yet
// read. Intermediate snapshots may be skipped. The channel is closed by Close.
func (m *Machine[T]) Subscribe() <-chan State[T] {
	ch := make(chan State[T], 1)
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		close(ch)
		return ch
	}
	m.subs[ch] = struct{}{}
	return ch
}

// SetSearch records typed search text. The text is committed and queried once
// it has been stable for the debounce interval; each call restarts the
// interval. Requests sent before then carry the previously committed text.
func (m *Machine[T]) SetSearch(text string) {
	m.mu.Lock()
	if m.closed || m.state.Typed == text {
		m.mu.Unlock()
		return
	}
	m.state.Typed = text
	m.state.Version++
	if m.debounce != nil {
		m.debounce.Stop()
	}
	m.typed++
	gen := m.typed
	m.debounce = m.opts.Clock.AfterFunc(m.opts.Debounce, func() { m.fireSearch(gen) })
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
}

func (m *Machine[T]) fireSearch(gen uint64) {
	m.mutate(func(s *State[T]) bool {
		if gen != m.typed {
			return false
		}
		m.debounce = nil
		if s.Search == s.Typed {
			return false
		}
		s.Search = s.Typed
		m.resetPage(s)
		return true
	})
}

// SetSearchBy selects the searched field, or query.SearchAll.
func (m *Machine[T]) SetSearchBy(field string) {
	if field != query.SearchAll && !m.resource.HasField(field) {
		field = query.SearchAll
	}
	m.mutate(func(s *State[T]) bool {
		if s.SearchBy == field {
			return false
		}
		s.SearchBy = field
		m.resetPage(s)
		return true
	})
}

// SetSort sets the sort field and direction explicitly.
func (m *Machine[T]) SetSort(field string, order query.Order) {
	if !m.resource.HasField(field) || !order.Valid() {
		return
	}
	m.mutate(func(s *State[T]) bool {
		if s.SortBy == field && s.Order == order {
			return false
		}
		s.SortBy, s.Order = field, order
		m.resetPage(s)
		return true
	})
}

// ToggleSort flips the order when field is already the sort field, and
// otherwise sorts by field ascending.
func (m *Machine[T]) ToggleSort(field string) {
	if !m.resource.HasField(field) {
		return
	}
	m.mutate(func(s *State[T]) bool {
		if s.SortBy == field {
			s.Order = s.Order.Flip()
		} else {
			s.SortBy, s.Order = field, query.Asc
		}
		m.resetPage(s)
		return true
	})
}

// SetPage moves to page n. Pages below 1 are clamped to 1.
func (m *Machine[T]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	m.mutate(func(s *State[T]) bool {
		if s.Page == n {
			return false
		}
		s.Page = n
		return true
	})
}

// NextPage moves forward one page when one exists.
func (m *Machine[T]) NextPage() {
	m.mutate(func(s *State[T]) bool {
		if s.Page >= s.Pages {
			return false
		}
		s.Page++
		return true
	})
}

// PrevPage moves back one page, never below 1.
func (m *Machine[T]) PrevPage() {
	m.mutate(func(s *State[T]) bool {
		if s.Page <= 1 {
			return false
		}
		s.Page--
		return true
	})
}

// SetFilters replaces the multi-select filters.
func (m *Machine[T]) SetFilters(f query.Filters) {
	m.mutate(func(s *State[T]) bool {
		if s.Filters.Equal(f) {
			return false
		}
		s.Filters = f.Clone()
		m.resetPage(s)
		return true
	})
}

// Refresh re-queries with the current parameters.
func (m *Machine[T]) Refresh() {
	m.mutate(func(*State[T]) bool { return true })
}

// Close cancels the pending debounce, discards any in-flight response and
// closes subscriber channels.
func (m *Machine[T]) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}
	m.mu.Unlock()

	m.cancel()
	if m.stopBus != nil {
		m.stopBus()
	}
	m.wg.Wait()

	m.pubMu.Lock()
	for ch := range m.subs {
		close(ch)
		delete(m.subs, ch)
	}
	m.pubMu.Unlock()
}

func (m *Machine[T]) resetPage(s *State[T]) {
	if m.opts.ResetPageOnChange {
		s.Page = 1
	}
}

// mutate applies change under the lock and, when it reports a change,
// issues a query for the new state.
func (m *Machine[T]) mutate(change func(*State[T]) bool) {
	m.mu.Lock()
	if m.closed || !change(&m.state) {
		m.mu.Unlock()
		return
	}
	m.seq++
	seq := m.seq
	params := m.paramsLocked()
	m.state.IsLoading = true
	m.state.Version++
	snap := m.snapshotLocked()
	m.wg.Add(1)
	m.mu.Unlock()

	m.publish(snap)
	go m.fetch(seq, params)
}

func (m *Machine[T]) fetch(seq uint64, params query.Params) {
	defer m.wg.Done()
	page, err := m.lister.List(m.ctx, params)

	m.mu.Lock()
	if m.closed || seq != m.seq {
		m.mu.Unlock()
		m.settle(seq, false)
		return
	}
	if err != nil {
		m.opts.Logger.Error().Err(err).
			Str("resource", m.resource.Name).
			Uint64("seq", seq).
			Msg("List query failed")
	} else {
		m.state.Items = page.Items
		if m.state.Items == nil {
			m.state.Items = []T{}
		}
		m.state.Total = page.Total
		m.state.Pages = page.Pages
	}
	m.state.IsLoading = false
	m.state.Version++
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
	m.settle(seq, err == nil)
}

func (m *Machine[T]) settle(seq uint64, applied bool) {
	if m.settled != nil {
		m.settled(seq, applied)
	}
}

func (m *Machine[T]) paramsLocked() query.Params {
	s := m.state
	return query.Params{
		Page:     s.Page,
		PerPage:  s.PerPage,
		Search:   s.Search,
		SearchBy: s.SearchBy,
		SortBy:   s.SortBy,
		Order:    s.Order,
		Filters:  s.Filters.Clone(),
	}
}

func (m *Machine[T]) snapshotLocked() State[T] {
	snap := m.state
	snap.Items = append([]T(nil), m.state.Items...)
	snap.Filters = m.state.Filters.Clone()
	return snap
}

// publish hands snap to every subscriber, replacing any unread snapshot.
// Snapshots older than one already published are dropped.
func (m *Machine[T]) publish(snap State[T]) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	if snap.Version <= m.published {
		return
	}
	m.published = snap.Version
	for ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
