package listview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/invalidate"
	"github.com/ssis-app/ssis/internal/pkg/clock"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

const wait = time.Second

type reply struct {
	page query.Page[models.College]
	err  error
}

type call struct {
	params query.Params
	reply  chan reply
}

// fakeLister hands every request to the test, which answers it explicitly.
type fakeLister struct {
	calls chan call
}

func newFakeLister() *fakeLister {
	return &fakeLister{calls: make(chan call, 16)}
}

func (f *fakeLister) List(ctx context.Context, p query.Params) (query.Page[models.College], error) {
	c := call{params: p, reply: make(chan reply, 1)}
	f.calls <- c
	select {
	case r := <-c.reply:
		return r.page, r.err
	case <-ctx.Done():
		return query.Page[models.College]{}, ctx.Err()
	}
}

func (f *fakeLister) next(t *testing.T) call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(wait):
		t.Fatal("expected a list request")
		return call{}
	}
}

func (f *fakeLister) none(t *testing.T) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected list request: %+v", c.params)
	case <-time.After(50 * time.Millisecond):
	}
}

func pageOf(total int, codes ...string) query.Page[models.College] {
	items := make([]models.College, 0, len(codes))
	for _, c := range codes {
		items = append(items, models.College{CollegeCode: c, CollegeName: c + " college"})
	}
	return query.Page[models.College]{Key: "colleges", Items: items, Total: total, Pages: query.Pages(total, 15)}
}

type settledEvent struct {
	seq     uint64
	applied bool
}

func newMachine(t *testing.T, opts Options) (*Machine[models.College], *fakeLister, chan settledEvent) {
	t.Helper()
	lister := newFakeLister()
	m := New[models.College](lister, query.Colleges, opts)
	settled := make(chan settledEvent, 16)
	m.settled = func(seq uint64, applied bool) { settled <- settledEvent{seq, applied} }
	t.Cleanup(m.Close)
	return m, lister, settled
}

func waitSettled(t *testing.T, ch chan settledEvent) settledEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(wait):
		t.Fatal("response was not handled")
		return settledEvent{}
	}
}

func TestMachine_InitialState(t *testing.T) {
	m, lister, settled := newMachine(t, Options{})

	s := m.State()
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 15, s.PerPage)
	assert.Equal(t, "collegeCode", s.SortBy)
	assert.Equal(t, query.Asc, s.Order)
	assert.Equal(t, query.SearchAll, s.SearchBy)
	assert.Empty(t, s.Search)
	assert.True(t, s.Filters.Empty())
	assert.False(t, s.IsLoading)

	m.Start()
	assert.True(t, m.State().IsLoading)

	c := lister.next(t)
	assert.Equal(t, query.DefaultParams(query.Colleges), c.params)
	c.reply <- reply{page: pageOf(2, "CCS", "COE")}
	waitSettled(t, settled)

	s = m.State()
	assert.False(t, s.IsLoading)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Pages)
	assert.Len(t, s.Items, 2)
}

func TestMachine_SearchIsDebounced(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	m, lister, _ := newMachine(t, Options{Clock: fake})

	for _, text := range []string{"c", "co", "com"} {
		m.SetSearch(text)
		fake.Advance(100 * time.Millisecond)
	}
	s := m.State()
	assert.Equal(t, "com", s.Typed)
	assert.Empty(t, s.Search)
	lister.none(t)

	fake.Advance(299 * time.Millisecond)
	lister.none(t)

	fake.Advance(time.Millisecond)
	c := lister.next(t)
	assert.Equal(t, "com", c.params.Search)
	assert.Equal(t, "com", m.State().Search)
	lister.none(t)
}

func TestMachine_PendingSearchStaysOutOfOtherRequests(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	m, lister, _ := newMachine(t, Options{Clock: fake})

	m.SetSearch("c")
	fake.Advance(100 * time.Millisecond)
	m.SetSearch("co")
	fake.Advance(100 * time.Millisecond)

	m.SetPage(2)
	c := lister.next(t)
	assert.Empty(t, c.params.Search)
	assert.Equal(t, 2, c.params.Page)

	m.ToggleSort("collegeName")
	assert.Empty(t, lister.next(t).params.Search)

	m.SetSearch("com")
	fake.Advance(300 * time.Millisecond)
	assert.Equal(t, "com", lister.next(t).params.Search)
	lister.none(t)
}

func TestMachine_SearchRevertedBeforeDebounceSendsNothing(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	m, lister, _ := newMachine(t, Options{Clock: fake})

	m.SetSearch("x")
	m.SetSearch("")
	fake.Advance(time.Second)
	lister.none(t)
}

func TestMachine_ImmediateChangesSkipDebounce(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	m, lister, _ := newMachine(t, Options{Clock: fake})

	m.SetSearchBy("collegeName")
	assert.Equal(t, "collegeName", lister.next(t).params.SearchBy)

	m.SetSearchBy("bogus")
	assert.Equal(t, query.SearchAll, lister.next(t).params.SearchBy)

	m.SetPage(3)
	assert.Equal(t, 3, lister.next(t).params.Page)

	m.SetSort("collegeName", query.Desc)
	c := lister.next(t)
	assert.Equal(t, "collegeName", c.params.SortBy)
	assert.Equal(t, query.Desc, c.params.Order)
}

func TestMachine_DiscardsStaleResponses(t *testing.T) {
	m, lister, settled := newMachine(t, Options{})

	m.Start()
	first := lister.next(t)
	m.SetPage(2)
	second := lister.next(t)

	second.reply <- reply{page: pageOf(20, "NEW")}
	assert.Equal(t, settledEvent{seq: 2, applied: true}, waitSettled(t, settled))

	first.reply <- reply{page: pageOf(1, "OLD")}
	assert.Equal(t, settledEvent{seq: 1, applied: false}, waitSettled(t, settled))

	s := m.State()
	require.Len(t, s.Items, 1)
	assert.Equal(t, "NEW", s.Items[0].CollegeCode)
	assert.Equal(t, 20, s.Total)
	assert.Equal(t, 2, s.Page)
}

func TestMachine_StaleResponseDoesNotClearLoading(t *testing.T) {
	m, lister, settled := newMachine(t, Options{})

	m.Start()
	first := lister.next(t)
	m.Refresh()
	second := lister.next(t)

	first.reply <- reply{page: pageOf(1, "OLD")}
	waitSettled(t, settled)
	assert.True(t, m.State().IsLoading)

	second.reply <- reply{page: pageOf(1, "NEW")}
	waitSettled(t, settled)
	assert.False(t, m.State().IsLoading)
}

func TestMachine_ToggleSort(t *testing.T) {
	m, lister, _ := newMachine(t, Options{})

	m.ToggleSort("collegeCode")
	c := lister.next(t)
	assert.Equal(t, "collegeCode", c.params.SortBy)
	assert.Equal(t, query.Desc, c.params.Order)

	m.ToggleSort("collegeCode")
	assert.Equal(t, query.Asc, lister.next(t).params.Order, "two toggles restore the order")

	m.ToggleSort("collegeName")
	c = lister.next(t)
	assert.Equal(t, "collegeName", c.params.SortBy)
	assert.Equal(t, query.Asc, c.params.Order)

	m.ToggleSort("collegeName")
	assert.Equal(t, query.Desc, lister.next(t).params.Order)

	m.ToggleSort("collegeCode")
	c = lister.next(t)
	assert.Equal(t, "collegeCode", c.params.SortBy)
	assert.Equal(t, query.Asc, c.params.Order, "switching field resets to asc")

	m.ToggleSort("unknown")
	lister.none(t)
}

func TestMachine_PageNeverBelowOne(t *testing.T) {
	m, lister, settled := newMachine(t, Options{})

	m.SetPage(0)
	m.SetPage(-4)
	m.PrevPage()
	lister.none(t)
	assert.Equal(t, 1, m.State().Page)

	m.Start()
	lister.next(t).reply <- reply{page: pageOf(31, "A")}
	waitSettled(t, settled)
	require.Equal(t, 3, m.State().Pages)

	m.NextPage()
	assert.Equal(t, 2, lister.next(t).params.Page)
	m.NextPage()
	assert.Equal(t, 3, lister.next(t).params.Page)
	m.NextPage()
	lister.none(t)
}

func TestMachine_PageResetOption(t *testing.T) {
	tests := []struct {
		name  string
		reset bool
		want  int
	}{
		{"page kept by default", false, 4},
		{"page reset when enabled", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := newFakeLister()
			m := New[models.Student](studentLister{lister}, query.Students, Options{ResetPageOnChange: tt.reset})
			defer m.Close()

			m.SetPage(4)
			lister.next(t)

			m.SetFilters(query.Filters{Gender: []string{"Female"}})
			c := lister.next(t)
			assert.Equal(t, tt.want, c.params.Page)
			assert.Equal(t, []string{"Female"}, c.params.Filters.Gender)

			m.SetFilters(query.Filters{Gender: []string{"Female"}})
			lister.none(t)
		})
	}
}

func TestMachine_FailureKeepsData(t *testing.T) {
	m, lister, settled := newMachine(t, Options{})

	m.Start()
	lister.next(t).reply <- reply{page: pageOf(1, "CCS")}
	waitSettled(t, settled)

	m.Refresh()
	lister.next(t).reply <- reply{err: errors.New("connection refused")}
	assert.False(t, waitSettled(t, settled).applied)

	s := m.State()
	assert.False(t, s.IsLoading)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "CCS", s.Items[0].CollegeCode)
}

func TestMachine_CloseCancelsDebounce(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	lister := newFakeLister()
	m := New[models.College](lister, query.Colleges, Options{Clock: fake})
	sub := m.Subscribe()

	m.SetSearch("eng")
	m.Close()
	fake.Advance(time.Second)
	lister.none(t)

	for range sub {
	}
	m.SetPage(2)
	lister.none(t)
}

func TestMachine_Subscribe(t *testing.T) {
	m, lister, settled := newMachine(t, Options{})
	sub := m.Subscribe()

	m.Start()
	loading := <-sub
	assert.True(t, loading.IsLoading)

	lister.next(t).reply <- reply{page: pageOf(1, "CCS")}
	waitSettled(t, settled)

	done := <-sub
	assert.False(t, done.IsLoading)
	assert.Greater(t, done.Version, loading.Version)
	assert.Len(t, done.Items, 1)
}

func TestMachine_RefreshesOnInvalidation(t *testing.T) {
	bus := invalidate.NewBus()
	defer bus.Close()
	m, lister, _ := newMachine(t, Options{Bus: bus})

	m.SetPage(2)
	lister.next(t)

	bus.Publish(query.Colleges.Name)
	assert.Equal(t, 2, lister.next(t).params.Page)

	bus.Publish(query.Students.Name)
	lister.none(t)
}

// studentLister adapts the college fake for student pages; only params matter.
type studentLister struct {
	f *fakeLister
}

func (s studentLister) List(ctx context.Context, p query.Params) (query.Page[models.Student], error) {
	_, err := s.f.List(ctx, p)
	return query.Page[models.Student]{}, err
}
