// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
)

// PageSize is the number of rows shown in paged lists. Kept as an int
// because call sites add one and cast to int64 for Find().SetLimit().
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination:
// fetch one extra document to detect whether a next page exists.
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParsePage extracts the 1-based "page" query parameter, defaulting to
// the first page when absent or invalid.
func ParsePage(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Skip returns the Find().SetSkip() offset for a page.
func Skip(page int) int64 {
	return int64((page - 1) * PageSize)
}

// Trim trims a slice fetched with LimitPlusOne down to PageSize,
// in place, and reports whether a next page exists.
func Trim[T any](rows *[]T) bool {
	if len(*rows) > PageSize {
		*rows = (*rows)[:PageSize]
		return true
	}
	return false
}
