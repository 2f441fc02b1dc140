package model

import "math"

// Page is the envelope every list endpoint returns.
type Page[T any] struct {
	Data         []T   `json:"data"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalItems   int64 `json:"totalItems"`
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
}

// NewPage wraps one page of results. limit is the requested page size, which
// drives TotalPages; ItemsPerPage reports how many rows were actually returned.
func NewPage[T any](data []T, total int64, page, limit int) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if total > 0 && limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{
		Data:         data,
		ItemsPerPage: len(data),
		TotalItems:   total,
		CurrentPage:  page,
		TotalPages:   totalPages,
	}
}

// EmptyPage is the result of a filter that cannot match anything.
func EmptyPage[T any](page int) Page[T] {
	return NewPage[T](nil, 0, page, 0)
}

// Pagination is a validated page/limit pair.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NewPagination clamps a requested page and page size. Values below 1 fall
// back to page 1 and defaultLimit; limits above maxLimit are capped. page is
// capped so that Offset cannot overflow.
func NewPagination(page, limit, defaultLimit, maxLimit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if limit > 0 && page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return Pagination{Page: page, Limit: limit}
}
