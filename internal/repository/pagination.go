package repository

// Pagination is a normalized page/limit pair for list queries.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize clamps page and limit to their allowed ranges (page >= 1,
// 1 <= limit <= 100, default 10).
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages returns how many pages are needed for total items at the given
// limit.
func Pages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
