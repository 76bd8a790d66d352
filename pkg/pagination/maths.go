package pagination

import (
	"sync"
)

// Config holds the three quantities Maths derives everything from.
type Config struct {
	// PageSize is the number of records returned per page.
	PageSize int

	// MaxOffset is the largest offset the remote API accepts.
	MaxOffset int

	// TotalRecords is the uncapped size of the result set.
	TotalRecords int
}

// DefaultConfig returns the configuration used when nothing is known yet
// about a result set.
func DefaultConfig() Config {
	return Config{
		PageSize:     50,
		MaxOffset:    1_000_000,
		TotalRecords: 100_000,
	}
}

type keyKind uint8

const (
	keyAnyRecords keyKind = iota
	keyTotalPages
	keyPageIndex
	keyPageFromOffset
	keyOffsetFromPage
	keyRecordsOnPage
)

// cacheKey is a closed tagged union: kind selects the computation and arg
// carries its input where it has one.
type cacheKey struct {
	kind keyKind
	arg  int
}

type cachedValue struct {
	n  int
	ok bool
}

// Maths memoizes page arithmetic for one (page size, max offset, total records)
// configuration. It is safe for concurrent use; a setter and the cache
// invalidation it triggers happen in one critical section.
type Maths struct {
	mu     sync.Mutex
	config Config
	cache  map[cacheKey]cachedValue
}

// New validates cfg and returns a Maths with an empty cache.
func New(cfg Config) (*Maths, error) {
	if err := validateField("new", "page_size", cfg.PageSize); err != nil {
		return nil, err
	}
	if err := validateField("new", "max_offset", cfg.MaxOffset); err != nil {
		return nil, err
	}
	if err := validateField("new", "total_records", cfg.TotalRecords); err != nil {
		return nil, err
	}

	return &Maths{
		config: cfg,
		cache:  make(map[cacheKey]cachedValue),
	}, nil
}

func validateField(op, name string, value int) error {
	if value < 0 {
		return invalidArgument(op, value, "%s >= 0", name)
	}
	return nil
}

// PageSize returns the configured page size.
func (m *Maths) PageSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.PageSize
}

// MaxOffset returns the configured offset ceiling.
func (m *Maths) MaxOffset() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.MaxOffset
}

// TotalRecords returns the configured result set size.
func (m *Maths) TotalRecords() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.TotalRecords
}

// SetPageSize changes the page size and drops every memoized value.
func (m *Maths) SetPageSize(n int) error {
	if err := validateField("set page size", "page_size", n); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.PageSize = n
	clear(m.cache)
	return nil
}

// SetMaxOffset changes the offset ceiling and drops every memoized value.
func (m *Maths) SetMaxOffset(n int) error {
	if err := validateField("set max offset", "max_offset", n); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.MaxOffset = n
	clear(m.cache)
	return nil
}

// SetTotalRecords changes the result set size and drops every memoized value.
func (m *Maths) SetTotalRecords(n int) error {
	if err := validateField("set total records", "total_records", n); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.TotalRecords = n
	clear(m.cache)
	return nil
}

// AnyRecords reports whether page size, max offset and total records are all
// positive.
func (m *Maths) AnyRecords() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.anyRecords()
}

// TotalPages returns the number of pages reachable under the offset ceiling,
// or 0 when there are no records.
func (m *Maths) TotalPages() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalPages()
}

// PageIndex resolves ref to a page number. ok is false when there are no
// records or the page lies past TotalPages. An absent, zero or negative page
// number is an invalid argument.
func (m *Maths) PageIndex(ref PageRef) (page int, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pageIndex(ref)
}

// PageFromOffset returns the page holding the record at the zero-based offset.
// Offsets above MaxOffset are invalid.
func (m *Maths) PageFromOffset(offset int) (page int, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.anyRecords() {
		return 0, false, nil
	}

	key := cacheKey{kind: keyPageFromOffset, arg: offset}
	if v, hit := m.cache[key]; hit {
		return v.n, v.ok, nil
	}

	if offset > m.config.MaxOffset {
		return 0, false, invalidArgument("page from offset", offset, "<= max_offset (%d)", m.config.MaxOffset)
	}
	if offset < 0 {
		return 0, false, invalidArgument("page from offset", offset, ">= 0")
	}

	// Offsets are zero-based, so offset 0 and every offset below PageSize
	// land on page 1.
	page = offset/m.config.PageSize + 1

	m.cache[key] = cachedValue{n: page, ok: true}
	return page, true, nil
}

// OffsetFromPage returns the offset of the first record of the resolved page.
// The last page reports the capped record count min(TotalRecords, MaxOffset)
// instead, so callers can recognise the tail page by its offset. ok is false
// when there are no records or the page lies past TotalPages.
//
// A literal page number is checked against MaxOffset, not TotalPages.
func (m *Maths) OffsetFromPage(ref PageRef) (offset int, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.anyRecords() {
		return 0, false, nil
	}

	if ref.kind == refNumber && ref.number > m.config.MaxOffset {
		return 0, false, invalidArgument("offset from page", ref.number, "<= max_offset (%d)", m.config.MaxOffset)
	}

	page, ok, err := m.pageIndex(ref)
	if err != nil || !ok {
		return 0, false, err
	}

	key := cacheKey{kind: keyOffsetFromPage, arg: page}
	if v, hit := m.cache[key]; hit {
		return v.n, v.ok, nil
	}

	offset = (page - 1) * m.config.PageSize
	if page == m.totalPages() {
		offset = m.cappedRecords()
	}

	m.cache[key] = cachedValue{n: offset, ok: true}
	return offset, true, nil
}

// RecordsOnPage returns how many records the resolved page holds: PageSize
// for every page except the last, which holds the remainder.
func (m *Maths) RecordsOnPage(ref PageRef) (count int, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	page, ok, err := m.pageIndex(ref)
	if err != nil || !ok {
		return 0, false, err
	}

	key := cacheKey{kind: keyRecordsOnPage, arg: page}
	if v, hit := m.cache[key]; hit {
		return v.n, v.ok, nil
	}

	count = m.config.PageSize
	if page == m.totalPages() {
		count = m.cappedRecords() - (page-1)*m.config.PageSize
	}

	m.cache[key] = cachedValue{n: count, ok: true}
	return count, true, nil
}

// The helpers below expect m.mu to be held.

func (m *Maths) anyRecords() bool {
	key := cacheKey{kind: keyAnyRecords}
	if v, hit := m.cache[key]; hit {
		return v.ok
	}

	found := m.config.PageSize > 0 && m.config.MaxOffset > 0 && m.config.TotalRecords > 0
	m.cache[key] = cachedValue{ok: found}
	return found
}

func (m *Maths) totalPages() int {
	key := cacheKey{kind: keyTotalPages}
	if v, hit := m.cache[key]; hit {
		return v.n
	}

	pages := 0
	if m.anyRecords() {
		records := m.cappedRecords()
		pages = records / m.config.PageSize
		if records%m.config.PageSize != 0 {
			pages++
		}
	}

	m.cache[key] = cachedValue{n: pages, ok: true}
	return pages
}

func (m *Maths) cappedRecords() int {
	return min(m.config.TotalRecords, m.config.MaxOffset)
}

func (m *Maths) pageIndex(ref PageRef) (int, bool, error) {
	if !m.anyRecords() {
		return 0, false, nil
	}

	var page int
	switch ref.kind {
	case refAbsent:
		return 0, false, invalidArgument("page index", ref, "a page number or first/last")
	case refFirst:
		page = 1
	case refLast:
		page = m.totalPages()
	default:
		page = ref.number
	}

	if page == 0 {
		return 0, false, invalidArgument("page index", page, "non-zero (pages are 1-based)")
	}
	if page < 0 {
		return 0, false, invalidArgument("page index", page, ">= 1")
	}

	key := cacheKey{kind: keyPageIndex, arg: page}
	if v, hit := m.cache[key]; hit {
		return v.n, v.ok, nil
	}

	v := cachedValue{n: page, ok: true}
	if page > m.totalPages() {
		v = cachedValue{}
	}

	m.cache[key] = v
	return v.n, v.ok, nil
}
