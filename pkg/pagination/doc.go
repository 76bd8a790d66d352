// Package pagination computes page arithmetic for offset-paged search APIs.
//
// The remote API accepts an offset and a page size, caps the offset it will
// serve at a fixed ceiling (max offset) and only reveals the size of a result
// set after a request. Maths reconciles those three quantities into a mapping
// between 1-based page numbers, record offsets and record counts.
//
// Example usage:
//
//	m, err := pagination.New(pagination.Config{
//		PageSize:     3,
//		MaxOffset:    100_000,
//		TotalRecords: 5,
//	})
//	pages := m.TotalPages()                                // 2
//	page, ok, err := m.PageFromOffset(3)                   // 2, true, nil
//	offset, ok, err := m.OffsetFromPage(pagination.LastPage) // 5, true, nil
//
// Every derived value is memoized per instance. Changing the page size, the
// max offset or the total record count clears the memoized values before the
// setter returns.
//
// A false ok with a nil error means "no such page": either the result set is
// empty or the requested page lies past the last one. Violated preconditions
// are reported as errors matching ErrInvalidArgument.
package pagination
