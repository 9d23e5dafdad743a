// Package pagination computes page metadata for list endpoints.
package pagination

import "math"

// Meta is the page arithmetic for one page of a result set. NextPage and
// PrevPage are nil when absent.
type Meta struct {
	TotalPages int
	NextPage   *int
	PrevPage   *int
}

// Page is a single page of items together with its metadata, shaped the way
// list endpoints return it.
type Page[T any] struct {
	TotalCount int  `json:"totalCount"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	NextPage   *int `json:"nextPage"`
	PrevPage   *int `json:"prevPage"`
	PageCount  int  `json:"pageCount"`
	Data       []T  `json:"data"`
}

// Compute derives total pages and neighbouring pages. page is not checked
// against the total; a page past the end simply has no next page.
// limit must be at least 1.
func Compute(page, limit, totalCount int) Meta {
	totalPages := totalCount / limit
	if totalCount%limit != 0 {
		totalPages++
	}

	meta := Meta{TotalPages: totalPages}
	remaining := totalPages - page
	if remaining > 0 {
		next := page + 1
		meta.NextPage = &next
	}
	if remaining >= 0 && page-1 > 0 {
		prev := page - 1
		meta.PrevPage = &prev
	}
	return meta
}

// New builds a Page for data, which is expected to already hold only the
// items of the requested page.
func New[T any](page, limit, totalCount int, data []T) Page[T] {
	meta := Compute(page, limit, totalCount)
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		TotalCount: totalCount,
		Page:       page,
		Limit:      limit,
		NextPage:   meta.NextPage,
		PrevPage:   meta.PrevPage,
		PageCount:  meta.TotalPages,
		Data:       data,
	}
}

// Offset returns the number of items to skip to reach page. Offsets too
// large to represent saturate at math.MaxInt.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
