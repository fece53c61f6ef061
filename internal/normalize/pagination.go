package normalize

// Page is one slice of a paginated listing. Limit is nil when the caller did
// not ask for pagination.
type Page[T any] struct {
	Items      []T  `json:"-"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	TotalPages int  `json:"totalPages"`
	Limit      *int `json:"limit"`
}

// Paginate slices items by the loosely typed limit and page arguments. An
// absent limit returns everything as page 1 (or 0 pages when empty). An
// absent page is 1.
func Paginate[T any](items []T, limitArg, pageArg any) Page[T] {
	total := len(items)
	limit, hasLimit := PositiveInt(limitArg)
	page, hasPage := PositiveInt(pageArg)
	if !hasPage {
		page = 1
	}
	if !hasLimit {
		pages := 1
		if total == 0 {
			pages = 0
		}
		return Page[T]{Items: items, Total: total, Page: page, TotalPages: pages}
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	start := total
	if page <= pages {
		start = (page - 1) * limit
	}
	end := start + min(limit, total-start)
	return Page[T]{
		Items:      items[start:end],
		Total:      total,
		Page:       page,
		TotalPages: pages,
		Limit:      &limit,
	}
}
