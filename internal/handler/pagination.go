package handler

import (
	"net/http"
	"strconv"
)

// Interview lists are small per party; a page of 20 covers most calendars.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Limit  int
	Offset int
}

// ParsePagination reads ?limit= and ?offset=. Out-of-range values fall back
// to the defaults rather than failing the request.
func ParsePagination(r *http.Request) Page {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return Page{Limit: limit, Offset: offset}
}
