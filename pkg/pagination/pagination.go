// Package pagination carries the skip/take paging envelope shared by all list
// operations.
package pagination

// Input selects a page of results. Zero values fall back to the defaults.
type Input struct {
	Skip int `json:"skip"`
	Take int `json:"take"`
}

// DefaultTake is the page size used when the caller does not specify one.
const DefaultTake = 10

// Normalize clamps an optional Input into usable skip/take values.
func Normalize(in *Input) (skip, take int) {
	if in != nil {
		skip = in.Skip
		take = in.Take
	}
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		take = DefaultTake
	}
	return skip, take
}

// Info describes the position of a returned page within the full result set.
type Info struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// ListResponse is a page of items plus its paging info.
type ListResponse[T any] struct {
	Items      []T  `json:"items"`
	Pagination Info `json:"pagination"`
}

// NewListResponse assembles the envelope from a page of items and the total
// row count the filter matched.
func NewListResponse[T any](items []T, totalItems int64, skip, take int) ListResponse[T] {
	totalPages := int((totalItems + int64(take) - 1) / int64(take))
	return ListResponse[T]{
		Items: items,
		Pagination: Info{
			CurrentPage: skip/take + 1,
			TotalPages:  totalPages,
			TotalItems:  totalItems,
			HasNext:     int64(skip+take) < totalItems,
			HasPrev:     skip > 0,
		},
	}
}
