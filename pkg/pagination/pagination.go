package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultSize = 20
	maxSize     = 100
	// maxPage keeps (Page-1)*Size far from overflowing into a negative OFFSET.
	maxPage = 100_000
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page   int `json:"page"`
	Size   int `json:"size"`
	Offset int `json:"-"`
}

// DefaultParams returns the first page with the default size.
func DefaultParams() Params {
	return Params{Page: 1, Size: defaultSize}
}

// FromRequest reads ?page= and ?size=; invalid values fall back to defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = min(v, maxPage)
		}
	}

	if size := r.URL.Query().Get("size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 && v <= maxSize {
			p.Size = v
		}
	}

	p.Offset = (p.Page - 1) * p.Size
	return p
}

// Result is one page of items plus totals.
type Result[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"totalCount"`
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
}

// NewResult builds a Result; a nil slice is rendered as [].
func NewResult[T any](items []T, totalCount int, params Params) Result[T] {
	totalPages := totalCount / params.Size
	if totalCount%params.Size > 0 {
		totalPages++
	}
	if items == nil {
		items = []T{}
	}

	return Result[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       params.Page,
		Size:       params.Size,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
	}
}
