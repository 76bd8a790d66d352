package search

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/Sternrassler/datacom-client/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settings struct {
	pageSize  int
	maxOffset int
}

func (s *settings) PageSize() int  { return s.pageSize }
func (s *settings) MaxOffset() int { return s.maxOffset }

// fakeFetcher serves total records numbered 0..total-1 and records every request.
type fakeFetcher struct {
	mu       sync.Mutex
	total    int
	requests []Params
	failAt   map[int]error
}

func (f *fakeFetcher) Fetch(_ context.Context, params Params) (*Response[int], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, params)
	if err, ok := f.failAt[params.Offset]; ok && params.PageSize > 0 {
		return nil, err
	}

	resp := &Response[int]{TotalHits: f.total}
	for i := params.Offset; i < params.Offset+params.PageSize && i < f.total; i++ {
		resp.Records = append(resp.Records, i)
	}
	return resp, nil
}

func (f *fakeFetcher) pageRequests() []Params {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pages []Params
	for _, p := range f.requests {
		if p.PageSize != CountOnlyPageSize {
			pages = append(pages, p)
		}
	}
	return pages
}

func (f *fakeFetcher) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newCollection(t *testing.T, f *fakeFetcher, pageSize, maxOffset int) *Collection[int] {
	t.Helper()

	c, err := New[int](f, &settings{pageSize: pageSize, maxOffset: maxOffset}, url.Values{"firstname": {"Ada"}})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	f := &fakeFetcher{}

	_, err := New[int](nil, &settings{pageSize: 3, maxOffset: 10}, nil)
	assert.EqualError(t, err, "fetcher is required")

	_, err = New[int](f, nil, nil)
	assert.EqualError(t, err, "settings are required")

	_, err = New[int](f, &settings{pageSize: 0, maxOffset: 10}, nil)
	assert.EqualError(t, err, "page_size must be > 0 to iterate (got 0)")

	_, err = New[int](f, &settings{pageSize: 3, maxOffset: -1}, nil)
	assert.EqualError(t, err, "max_offset must be >= 0 (got -1)")
}

func TestCollection_PageSizeIsSnapshotted(t *testing.T) {
	f := &fakeFetcher{total: 10}
	s := &settings{pageSize: 3, maxOffset: 100}

	c, err := New[int](f, s, nil)
	require.NoError(t, err)

	s.pageSize = 50

	assert.Equal(t, 3, c.PageSize())
	records, err := c.PageAt(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 3, f.pageRequests()[0].PageSize)
}

func TestCollection_OptionsArePassedThrough(t *testing.T) {
	f := &fakeFetcher{total: 10}
	options := url.Values{"firstname": {"Ada"}}

	c, err := New[int](f, &settings{pageSize: 3, maxOffset: 100}, options)
	require.NoError(t, err)

	options.Set("firstname", "Grace")

	_, err = c.PageAt(context.Background(), 6)
	require.NoError(t, err)

	req := f.pageRequests()[0]
	assert.Equal(t, "Ada", req.Options.Get("firstname"))
	assert.Equal(t, 6, req.Offset)
}

func TestCollection_SizeFetchesOnce(t *testing.T) {
	f := &fakeFetcher{total: 42}
	c := newCollection(t, f, 10, 1000)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		size, err := c.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, size)
	}

	require.Equal(t, 1, f.requestCount())
	assert.Equal(t, Params{Options: url.Values{"firstname": {"Ada"}}, Offset: 0, PageSize: CountOnlyPageSize}, f.requests[0])
}

func TestCollection_SizeLearnedFromPageFetch(t *testing.T) {
	f := &fakeFetcher{total: 42}
	c := newCollection(t, f, 10, 1000)
	ctx := context.Background()

	_, err := c.PageAt(ctx, 10)
	require.NoError(t, err)

	size, err := c.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, size)
	assert.Equal(t, 1, f.requestCount(), "Size should reuse the count seen on the page fetch")
}

func TestCollection_SizeFirstValueWins(t *testing.T) {
	f := &fakeFetcher{total: 42}
	c := newCollection(t, f, 10, 1000)
	ctx := context.Background()

	_, err := c.Size(ctx)
	require.NoError(t, err)

	f.total = 7
	_, err = c.PageAt(ctx, 0)
	require.NoError(t, err)

	size, err := c.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, size)
}

func TestCollection_RealMaxOffset(t *testing.T) {
	tests := []struct {
		name          string
		pageSize      int
		maxOffset     int
		wantRealMax   int
		wantReachable int
	}{
		{name: "aligned ceiling", pageSize: 50, maxOffset: 100_000, wantRealMax: 100_000, wantReachable: 100_050},
		{name: "unaligned ceiling", pageSize: 3, maxOffset: 100_000, wantRealMax: 99_999, wantReachable: 100_002},
		{name: "ceiling below page size", pageSize: 10, maxOffset: 7, wantRealMax: 0, wantReachable: 10},
		{name: "zero ceiling", pageSize: 10, maxOffset: 0, wantRealMax: 0, wantReachable: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollection(t, &fakeFetcher{}, tt.pageSize, tt.maxOffset)
			assert.Equal(t, tt.wantRealMax, c.RealMaxOffset())
			assert.Equal(t, tt.wantReachable, c.MaxRecordsReachable())
		})
	}
}

func TestCollection_ForEach_ShortLastPage(t *testing.T) {
	f := &fakeFetcher{total: 5}
	c := newCollection(t, f, 3, 100_000)

	var indices []int
	err := c.ForEach(context.Background(), func(record, index int) error {
		assert.Equal(t, index, record)
		indices = append(indices, index)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, indices)

	pages := f.pageRequests()
	require.Len(t, pages, 2)
	assert.Equal(t, 0, pages[0].Offset)
	assert.Equal(t, 3, pages[1].Offset)
	assert.Equal(t, 2, f.requestCount(), "the count is learned from the first page")
}

func TestCollection_ForEach_StopsOnExactCount(t *testing.T) {
	f := &fakeFetcher{total: 6}
	c := newCollection(t, f, 3, 100_000)

	visited := 0
	err := c.ForEach(context.Background(), func(int, int) error {
		visited++
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 6, visited)
	assert.Len(t, f.pageRequests(), 2, "no trailing empty page is requested")
}

func TestCollection_ForEach_StopsAtCeiling(t *testing.T) {
	f := &fakeFetcher{total: 100}
	c := newCollection(t, f, 3, 10)

	var indices []int
	err := c.ForEach(context.Background(), func(_ int, index int) error {
		indices = append(indices, index)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, indices, 12)
	assert.Equal(t, 11, indices[len(indices)-1])

	var offsets []int
	for _, p := range f.pageRequests() {
		offsets = append(offsets, p.Offset)
	}
	assert.Equal(t, []int{0, 3, 6, 9}, offsets)
}

func TestCollection_ForEach_EmptyResult(t *testing.T) {
	f := &fakeFetcher{total: 0}
	c := newCollection(t, f, 3, 100)

	err := c.ForEach(context.Background(), func(int, int) error {
		t.Fatal("visitor must not be called")
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, f.pageRequests(), 1)
}

func TestCollection_ForEach_IsRestartable(t *testing.T) {
	f := &fakeFetcher{total: 5}
	c := newCollection(t, f, 3, 100)
	ctx := context.Background()

	for pass := 0; pass < 2; pass++ {
		var indices []int
		err := c.ForEach(ctx, func(_ int, index int) error {
			indices = append(indices, index)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, indices, "pass %d", pass)
	}

	assert.Len(t, f.pageRequests(), 4)
}

func TestCollection_ForEach_VisitorErrorStops(t *testing.T) {
	f := &fakeFetcher{total: 9}
	c := newCollection(t, f, 3, 100)
	errStop := errors.New("stop")

	visited := 0
	err := c.ForEach(context.Background(), func(_ int, index int) error {
		visited++
		if index == 4 {
			return errStop
		}
		return nil
	})

	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, 5, visited)
	assert.Len(t, f.pageRequests(), 2)
}

func TestCollection_FetchErrorPropagatesUnchanged(t *testing.T) {
	errTransport := errors.New("connection reset")
	f := &fakeFetcher{total: 9, failAt: map[int]error{3: errTransport}}
	c := newCollection(t, f, 3, 100)
	ctx := context.Background()

	err := c.ForEach(ctx, func(int, int) error { return nil })
	assert.Same(t, errTransport, err)

	_, err = c.All(ctx)
	assert.Same(t, errTransport, err)

	_, err = c.PageAt(ctx, 3)
	assert.Same(t, errTransport, err)
}

func TestCollection_NilResponse(t *testing.T) {
	fetcher := FetcherFunc[int](func(context.Context, Params) (*Response[int], error) {
		return nil, nil
	})
	c, err := New[int](fetcher, &settings{pageSize: 3, maxOffset: 100}, nil)
	require.NoError(t, err)

	_, err = c.Size(context.Background())
	assert.EqualError(t, err, "fetch offset 0: nil response")
}

func TestCollection_All(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		maxOffset int
		wantLen   int
	}{
		{name: "empty", total: 0, pageSize: 3, maxOffset: 100, wantLen: 0},
		{name: "single short page", total: 2, pageSize: 50, maxOffset: 100_000, wantLen: 2},
		{name: "short last page", total: 5, pageSize: 3, maxOffset: 100_000, wantLen: 5},
		{name: "exact pages", total: 20, pageSize: 5, maxOffset: 100_000, wantLen: 20},
		{name: "capped by ceiling", total: 100, pageSize: 3, maxOffset: 10, wantLen: 12},
		{name: "aligned ceiling", total: 100, pageSize: 5, maxOffset: 20, wantLen: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{total: tt.total}
			c := newCollection(t, f, tt.pageSize, tt.maxOffset)
			ctx := context.Background()

			all, err := c.All(ctx)
			require.NoError(t, err)

			effective, err := c.EffectiveSize(ctx)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLen, effective)
			assert.Len(t, all, effective)
			for i, record := range all {
				assert.Equal(t, i, record)
			}
		})
	}
}

func TestCollection_TotalPagesAndPage(t *testing.T) {
	f := &fakeFetcher{total: 5}
	c := newCollection(t, f, 3, 100_000)
	ctx := context.Background()

	pages, err := c.TotalPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	last, err := c.Page(ctx, pagination.LastPage)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, last)

	first, err := c.Page(ctx, pagination.PageNumber(1))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, first)

	past, err := c.Page(ctx, pagination.PageNumber(3))
	require.NoError(t, err)
	assert.Nil(t, past)

	_, err = c.Page(ctx, pagination.PageNumber(0))
	assert.ErrorIs(t, err, pagination.ErrInvalidArgument)

	var offsets []int
	for _, p := range f.pageRequests() {
		offsets = append(offsets, p.Offset)
	}
	assert.Equal(t, []int{3, 0}, offsets)
}

func TestCollection_Maths(t *testing.T) {
	f := &fakeFetcher{total: 100_000}
	c := newCollection(t, f, 50, 1_000_000)

	m, err := c.Maths(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 50, m.PageSize())
	assert.Equal(t, 1_000_000, m.MaxOffset())
	assert.Equal(t, 100_000, m.TotalRecords())
	assert.Equal(t, 2000, m.TotalPages())
}
