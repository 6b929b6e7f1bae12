// Package paginate splits result lists into 1-based pages.
package paginate

// DefaultPerPage applies when perPage is not positive.
const DefaultPerPage = 10

func normalize(perPage int) int {
	if perPage <= 0 {
		return DefaultPerPage
	}
	return perPage
}

// Paginate returns page `page` of items. Pages outside [1, LastPage] are empty.
func Paginate[T any](items []T, page, perPage int) []T {
	perPage = normalize(perPage)
	if page < 1 {
		return []T{}
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := min(start+perPage, len(items))
	return items[start:end:end]
}

// LastPage is the number of pages needed for items, at least 1.
func LastPage[T any](items []T, perPage int) int {
	perPage = normalize(perPage)
	if n := (len(items) + perPage - 1) / perPage; n > 0 {
		return n
	}
	return 1
}

// NextPage advances page unless it is already the last one.
func NextPage[T any](items []T, page, perPage int) int {
	if page < LastPage(items, perPage) {
		return page + 1
	}
	return page
}

// PrevPage steps back unless page is already the first.
func PrevPage(page int) int {
	if page > 1 {
		return page - 1
	}
	return page
}

// StartPage is the first page.
func StartPage() int { return 1 }

// Page is one page of items plus its position.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	LastPage int `json:"last_page"`
	Total    int `json:"total"`
}

// Of builds the Page view for items.
func Of[T any](items []T, page, perPage int) Page[T] {
	perPage = normalize(perPage)
	return Page[T]{
		Items:    Paginate(items, page, perPage),
		Page:     page,
		PerPage:  perPage,
		LastPage: LastPage(items, perPage),
		Total:    len(items),
	}
}
