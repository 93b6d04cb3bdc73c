package graph

import "strconv"

// DefaultLimit is the page size applied when the caller does not provide one.
// Tweet listings use DefaultTweetLimit instead.
const (
	DefaultLimit      = 10
	DefaultTweetLimit = 5
)

// Page is a normalized pagination window. Number and Limit are always >= 1.
type Page struct {
	Number int
	Limit  int
}

// NewPage coerces raw query parameters into a valid pagination window. Empty,
// malformed, or non-positive values fall back to page 1 and the default limit.
func NewPage(pageParam, limitParam string, defaultLimit int) Page {
	page := Page{Number: 1, Limit: defaultLimit}

	if n, err := strconv.Atoi(pageParam); err == nil && n >= 1 {
		page.Number = n
	}
	if n, err := strconv.Atoi(limitParam); err == nil && n >= 1 {
		page.Limit = n
	}

	return page
}

// Offset returns the number of rows to skip for this window.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}
