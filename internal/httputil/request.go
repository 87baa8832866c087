package httputil

import (
	"net/http"
	"strconv"
)

// ParseIntParam parses an integer query parameter, falling back to
// defaultVal when the parameter is empty or invalid.
func ParseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultVal
}

// PageParams holds normalized pagination query parameters.
type PageParams struct {
	Page  int
	Limit int
}

// ParsePagination extracts page/limit from the query string, enforcing a
// minimum page of 1 and a maximum limit to keep queries bounded.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) PageParams {
	page := ParseIntParam(r.URL.Query().Get("page"), 1)
	limit := ParseIntParam(r.URL.Query().Get("limit"), defaultLimit)

	if limit > maxLimit {
		limit = maxLimit
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if page < 1 {
		page = 1
	}

	return PageParams{Page: page, Limit: limit}
}
