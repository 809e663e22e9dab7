package core

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Offset is the number of items skipped before this page.
func (p Page) Offset() int {
	if p.Number < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// TotalPages returns ceil(total/limit), or 0 when there is nothing to page.
func (p Page) TotalPages(total int) int {
	if total <= 0 || p.Limit < 1 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// PageInfo describes a page over transactions.
type PageInfo struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalCount  int `json:"totalCount"`
	Limit       int `json:"limit"`
}

// Info builds the pagination metadata for total matching items.
func (p Page) Info(total int) PageInfo {
	return PageInfo{
		CurrentPage: p.Number,
		TotalPages:  p.TotalPages(total),
		TotalCount:  total,
		Limit:       p.Limit,
	}
}
