package query

// Paginated is the envelope for one page of results plus navigation
// metadata. It is assembled once and never mutated.
type Paginated[T any] struct {
	Items       []T   `json:"items"`
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Size        int   `json:"size"`
	Pages       int   `json:"pages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	NextPage    *int  `json:"nextPage"`
	PrevPage    *int  `json:"prevPage"`
}

// Paginate assembles the envelope for a page of items.
//
// Pages is ceil(total/size), or 0 for a non-positive size. A page
// beyond the last yields an empty Items with otherwise correct
// metadata; that is not an error. Items is never nil so the JSON
// rendering is always an array.
func Paginate[T any](items []T, total int64, page, size int) Paginated[T] {
	if items == nil {
		items = []T{}
	}

	var pages int
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}

	p := Paginated[T]{
		Items:       items,
		Total:       total,
		Page:        page,
		Size:        size,
		Pages:       pages,
		HasPrevPage: page > 1,
		HasNextPage: page < pages,
	}

	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	return p
}
