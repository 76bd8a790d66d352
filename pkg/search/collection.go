// Package search drives lazy, restartable iteration over a remote paged search.
//
// A Collection never talks HTTP itself. It decides which offsets to request and
// when to stop, and hands every request to a Fetcher supplied by the issuing
// client. Records are opaque to this package.
package search

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/Sternrassler/datacom-client/pkg/logging"
	"github.com/Sternrassler/datacom-client/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// CountOnlyPageSize asks the remote API for the total hit count and no records.
const CountOnlyPageSize = 0

// Prometheus metrics for search iteration.
var (
	searchPagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datacom_search_pages_fetched_total",
		Help: "Total page fetches issued by search collections by kind",
	}, []string{"kind"}) // "count", "page"

	searchRecordsVisitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "datacom_search_records_visited_total",
		Help: "Total records handed to search visitors",
	})
)

// Params are the query parameters of one page fetch.
type Params struct {
	// Options are the caller's query terms, passed through untouched.
	Options url.Values

	// Offset is the zero-based position of the first requested record.
	Offset int

	// PageSize is the number of records requested; CountOnlyPageSize asks
	// for the total hit count only.
	PageSize int
}

// Response is what a Fetcher returns for one request.
type Response[R any] struct {
	// TotalHits is the size of the whole result set.
	TotalHits int

	// Records holds the page, in server order. Empty for count-only requests.
	Records []R
}

// Fetcher performs one blocking page request.
type Fetcher[R any] interface {
	Fetch(ctx context.Context, params Params) (*Response[R], error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[R any] func(ctx context.Context, params Params) (*Response[R], error)

// Fetch calls f.
func (f FetcherFunc[R]) Fetch(ctx context.Context, params Params) (*Response[R], error) {
	return f(ctx, params)
}

// Settings exposes the issuing client's paging configuration.
type Settings interface {
	// PageSize is the client's current page size.
	PageSize() int

	// MaxOffset is the largest offset the remote API accepts.
	MaxOffset() int
}

// Collection is a lazy view of one search. Page size and offset ceiling are
// captured at construction and never change, so a client reconfigured
// mid-iteration cannot skew the offsets of a running pass.
//
// A Collection serves one logical query; Size is safe to call concurrently,
// iteration is not meant to be.
type Collection[R any] struct {
	fetcher   Fetcher[R]
	options   url.Values
	pageSize  int
	maxOffset int

	realMaxOffset int

	mu    sync.Mutex
	size  int
	known bool

	logger zerolog.Logger
}

// New creates a Collection for options, snapshotting the page size and offset
// ceiling from settings.
func New[R any](fetcher Fetcher[R], settings Settings, options url.Values) (*Collection[R], error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}

	pageSize := settings.PageSize()
	if pageSize <= 0 {
		return nil, fmt.Errorf("page_size must be > 0 to iterate (got %d)", pageSize)
	}

	maxOffset := settings.MaxOffset()
	if maxOffset < 0 {
		return nil, fmt.Errorf("max_offset must be >= 0 (got %d)", maxOffset)
	}

	return &Collection[R]{
		fetcher:       fetcher,
		options:       cloneValues(options),
		pageSize:      pageSize,
		maxOffset:     maxOffset,
		realMaxOffset: maxOffset - maxOffset%pageSize,
		logger:        logging.NewLogger("search"),
	}, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}

// PageSize returns the page size captured at construction.
func (c *Collection[R]) PageSize() int {
	return c.pageSize
}

// RealMaxOffset is the largest page-aligned offset not above the ceiling.
func (c *Collection[R]) RealMaxOffset() int {
	return c.realMaxOffset
}

// MaxRecordsReachable is the most records iteration can return under the
// offset ceiling.
func (c *Collection[R]) MaxRecordsReachable() int {
	return c.realMaxOffset + c.pageSize
}

// Size returns the total hit count. The first call issues one count-only
// request unless a page fetch has already reported the count; later calls
// never fetch.
func (c *Collection[R]) Size(ctx context.Context) (int, error) {
	if size, ok := c.cachedSize(); ok {
		return size, nil
	}

	resp, err := c.fetch(ctx, 0, CountOnlyPageSize)
	if err != nil {
		return 0, err
	}
	searchPagesFetchedTotal.WithLabelValues("count").Inc()

	return c.observeSize(resp.TotalHits), nil
}

// EffectiveSize is the part of the result set reachable under the offset
// ceiling.
func (c *Collection[R]) EffectiveSize(ctx context.Context) (int, error) {
	size, err := c.Size(ctx)
	if err != nil {
		return 0, err
	}
	if size > c.realMaxOffset {
		return c.MaxRecordsReachable(), nil
	}
	return size, nil
}

// PageAt fetches the page starting at offset.
func (c *Collection[R]) PageAt(ctx context.Context, offset int) ([]R, error) {
	resp, err := c.fetch(ctx, offset, c.pageSize)
	if err != nil {
		return nil, err
	}
	searchPagesFetchedTotal.WithLabelValues("page").Inc()

	c.observeSize(resp.TotalHits)
	return resp.Records, nil
}

// ForEach visits every reachable record in order with its absolute index.
// Each call starts a fresh pass at offset 0. Iteration stops after a short
// page or once Size records were seen; a visitor error stops it as well and
// is returned unchanged.
func (c *Collection[R]) ForEach(ctx context.Context, visit func(record R, index int) error) error {
	offset := 0
	seen := 0
	pages := 0

	for offset <= c.realMaxOffset {
		records, err := c.PageAt(ctx, offset)
		if err != nil {
			return err
		}
		pages++

		for i, record := range records {
			if err := visit(record, offset+i); err != nil {
				return err
			}
			searchRecordsVisitedTotal.Inc()
		}

		inPage := len(records)
		offset += c.pageSize
		seen += inPage

		c.logger.Debug().
			Int("offset", offset-c.pageSize).
			Int("records", inPage).
			Int("seen", seen).
			Msg("Search page consumed")

		if inPage != c.pageSize {
			break
		}

		size, err := c.Size(ctx)
		if err != nil {
			return err
		}
		if seen == size {
			break
		}
	}

	c.logger.Debug().
		Int("pages", pages).
		Int("records", seen).
		Msg("Search iteration complete")

	return nil
}

// All loads every reachable record into a slice of EffectiveSize length, each
// record at its absolute index. Memory grows with the result set; check
// EffectiveSize first.
func (c *Collection[R]) All(ctx context.Context) ([]R, error) {
	effective, err := c.EffectiveSize(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]R, effective)
	err = c.ForEach(ctx, func(record R, index int) error {
		if index >= len(all) {
			// The server returned more than it announced.
			all = append(all, make([]R, index-len(all)+1)...)
		}
		all[index] = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("records", len(all)).
		Msg("Search results loaded")

	return all, nil
}

// Maths returns page arithmetic for this search: the captured page size, the
// offset ceiling and the total hit count.
func (c *Collection[R]) Maths(ctx context.Context) (*pagination.Maths, error) {
	size, err := c.Size(ctx)
	if err != nil {
		return nil, err
	}

	return pagination.New(pagination.Config{
		PageSize:     c.pageSize,
		MaxOffset:    c.maxOffset,
		TotalRecords: size,
	})
}

// TotalPages is the number of pages reachable under the offset ceiling.
func (c *Collection[R]) TotalPages(ctx context.Context) (int, error) {
	m, err := c.Maths(ctx)
	if err != nil {
		return 0, err
	}
	return m.TotalPages(), nil
}

// Page fetches the page ref resolves to. Pages past the end yield nil records
// and a nil error; invalid references return an error matching
// pagination.ErrInvalidArgument.
func (c *Collection[R]) Page(ctx context.Context, ref pagination.PageRef) ([]R, error) {
	m, err := c.Maths(ctx)
	if err != nil {
		return nil, err
	}

	page, ok, err := m.PageIndex(ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return c.PageAt(ctx, (page-1)*c.pageSize)
}

func (c *Collection[R]) fetch(ctx context.Context, offset, pageSize int) (*Response[R], error) {
	resp, err := c.fetcher.Fetch(ctx, Params{
		Options:  cloneValues(c.options),
		Offset:   offset,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("fetch offset %d: nil response", offset)
	}
	return resp, nil
}

func (c *Collection[R]) cachedSize() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size, c.known
}

// observeSize records total on first sight and returns the size in effect.
func (c *Collection[R]) observeSize(total int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.known {
		c.size = total
		c.known = true
	}
	return c.size
}
