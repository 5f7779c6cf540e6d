package domain

type Page[T any] struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	Data        []T   `json:"data"`
}

const DefaultPerPage = 10

// NormalizePage clamps page arguments to usable values.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func NewPage[T any](data []T, page, perPage int, total int64) Page[T] {
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    last,
		Data:        data,
	}
}

func PageOffset(page, perPage int) int {
	return (page - 1) * perPage
}
