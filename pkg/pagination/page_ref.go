package pagination

import "strconv"

type refKind uint8

const (
	refAbsent refKind = iota
	refNumber
	refFirst
	refLast
)

// PageRef identifies a page either by its 1-based number or by a symbolic
// position. The zero value is an absent reference and is always rejected.
type PageRef struct {
	kind   refKind
	number int
}

var (
	// FirstPage always resolves to page 1.
	FirstPage = PageRef{kind: refFirst}

	// LastPage resolves to Maths.TotalPages().
	LastPage = PageRef{kind: refLast}
)

// PageNumber references a literal page number.
func PageNumber(n int) PageRef {
	return PageRef{kind: refNumber, number: n}
}

// IsAbsent reports whether r is the zero PageRef.
func (r PageRef) IsAbsent() bool {
	return r.kind == refAbsent
}

// String returns the page number or the symbolic name.
func (r PageRef) String() string {
	switch r.kind {
	case refNumber:
		return strconv.Itoa(r.number)
	case refFirst:
		return "first"
	case refLast:
		return "last"
	default:
		return "<nil>"
	}
}

// ParsePageRef accepts "first", "last" or a decimal page number.
// The empty string yields the absent reference.
func ParsePageRef(s string) (PageRef, error) {
	switch s {
	case "":
		return PageRef{}, nil
	case "first":
		return FirstPage, nil
	case "last":
		return LastPage, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return PageRef{}, invalidArgument("parse page", strconv.Quote(s), "\"first\", \"last\" or an integer")
	}
	return PageNumber(n), nil
}
