package repository

// Pagination holds pagination parameters for listing vocabulary.
type Pagination struct {
	PageNo   int32
	PageSize int32
}

func (p *Pagination) Offset() int32 { return (p.PageNo - 1) * p.PageSize }

// ListQuery carries the raw filter and ordering inputs for a listing, as
// typed by the user.
type ListQuery struct {
	Pagination

	Filter  string
	OrderBy string
}

func (q *ListQuery) GetFilter() string { return q.Filter }

func (q *ListQuery) GetOrderBy() string { return q.OrderBy }
