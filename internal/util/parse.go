package util

import (
	"errors"
	"math"
)

// ErrPageOutOfRange means the requested page starts past any addressable row.
var ErrPageOutOfRange = errors.New("page out of range")

// Page converts 1-based page and limit into a limit/offset pair. limit is
// clamped to [1, maxLimit] with defaultLimit for non-positive input. Pages
// whose offset+limit would overflow an int are rejected.
func Page(page, limit, defaultLimit, maxLimit int) (int, int, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page < 1 {
		page = 1
	}
	if page > math.MaxInt/limit {
		return 0, 0, ErrPageOutOfRange
	}
	return limit, (page - 1) * limit, nil
}
