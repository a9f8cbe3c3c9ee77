package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"rewards/internal/core"
	"rewards/internal/source"
)

// Page sizes offered by list endpoints.
var pageSizes = []int{5, 10, 25}

const defaultPageSize = 25

// ErrInvalidPage is returned for malformed pagination parameters.
var ErrInvalidPage = errors.New("invalid pagination")

// PageParams holds the 0-based page index and its size.
type PageParams struct {
	Page     int
	PageSize int
}

// Page is one slice of a list response.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// ParseRangeParams reads optional start and end (YYYY-MM-DD) query parameters
// on the calendar of loc.
func ParseRangeParams(query url.Values, loc *time.Location) (core.DateRange, error) {
	return core.ParseDateRange(sanitizeInput(query.Get("start")), sanitizeInput(query.Get("end")), loc)
}

// ParsePageParams reads page (default 0) and page_size (5, 10 or 25; default 25).
func ParsePageParams(query url.Values) (PageParams, error) {
	params := PageParams{PageSize: defaultPageSize}

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 0 {
			return PageParams{}, fmt.Errorf("%w: page %q must be a non-negative integer", ErrInvalidPage, v)
		}
		params.Page = p
	}
	if v := strings.TrimSpace(query.Get("page_size")); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || !slices.Contains(pageSizes, size) {
			return PageParams{}, fmt.Errorf("%w: page_size %q must be one of %v", ErrInvalidPage, v, pageSizes)
		}
		params.PageSize = size
	}
	return params, nil
}

// Paginate cuts items to the requested page. Pages past the end are empty.
func Paginate[T any](items []T, p PageParams) Page[T] {
	out := Page[T]{Page: p.Page, PageSize: p.PageSize, Total: len(items), Items: []T{}}
	start := p.Page * p.PageSize
	if start >= len(items) || start < 0 {
		return out
	}
	end := min(start+p.PageSize, len(items))
	out.Items = items[start:end]
	return out
}

// DecodeTransactionsBody reads a JSON array of transactions from the request,
// refusing bodies larger than limit bytes.
func DecodeTransactionsBody(w http.ResponseWriter, r *http.Request, limit int64) ([]core.Transaction, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return source.Decode(r.Body)
}
