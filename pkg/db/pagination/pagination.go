package pagination

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is an offset page request. Zero values mean "use the default".
type Pagination struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type PageInfo struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	LastPage    int   `json:"last_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

// Normalize clamps limit to [1, maxLimit] and page to >= 1.
func (p Pagination) Normalize(defaultLimit, maxLimit int) Pagination {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}

	out := p
	if out.Limit <= 0 {
		out.Limit = defaultLimit
	}
	if out.Limit > maxLimit {
		out.Limit = maxLimit
	}
	if out.Page < 1 {
		out.Page = 1
	}
	return out
}

func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// BuildPageInfo derives paginator metadata from a normalized request, the
// filtered total and the number of rows actually returned.
func BuildPageInfo(p Pagination, total int64, count int) PageInfo {
	info := PageInfo{
		Total:       total,
		CurrentPage: p.Page,
		PerPage:     p.Limit,
		LastPage:    1,
	}
	if p.Limit > 0 && total > 0 {
		info.LastPage = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	if count > 0 {
		from := p.Offset() + 1
		to := from + count - 1
		info.From = &from
		info.To = &to
	}
	return info
}
