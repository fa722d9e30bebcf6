package services

import "math"

const (
	// DefaultPageLimit is used when the caller gives no usable limit.
	DefaultPageLimit = 3
	// MaxPageLimit caps the page size a caller may request.
	MaxPageLimit = 100
)

// Paginate reports whether items remain after a page that skipped skip items
// and returned returned items out of total.
func Paginate(total, skip, returned int64) bool {
	return total > skip+returned
}

// NormalizePage applies the paging defaults: negative pages become 0,
// non-positive limits become DefaultPageLimit and limits above MaxPageLimit
// are capped.
func NormalizePage(page, limit int) (int, int) {
	if page < 0 {
		page = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// PageOffset returns the number of items to skip for page. ok is false when
// the page starts at or past total, including pages whose offset would
// overflow an int.
func PageOffset(page, limit int, total int64) (skip int, ok bool) {
	if page < 0 || limit <= 0 || page > (math.MaxInt-1)/limit {
		return 0, false
	}
	skip = page * limit
	if int64(skip) >= total {
		return 0, false
	}
	return skip, true
}
