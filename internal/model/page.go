package model

// Page is one page of an ordered result set
type Page[T any] struct {
	CurrentPage int   `json:"current_page"`
	Items       []T   `json:"items"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

// NewPage builds a page envelope. TotalPages is at least 1.
func NewPage[T any](items []T, page, perPage int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 1
	if perPage > 0 && total > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Page[T]{
		CurrentPage: page,
		Items:       items,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  pages,
	}
}
