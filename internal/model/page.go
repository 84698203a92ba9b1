package model

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit far from int overflow.
	MaxPage = 1_000_000
)

// PageRequest holds offset pagination parameters plus a free-text filter.
type PageRequest struct {
	Page   int
	Limit  int
	Search string
}

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the row offset for the (normalized) page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the paginated list envelope returned by list endpoints.
type Page[T any] struct {
	Items        []T `json:"items"`
	TotalItems   int `json:"totalItems"`
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewPage builds the envelope; totalPages is ceil(total / limit).
func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:        items,
		TotalItems:   total,
		CurrentPage:  req.Page,
		TotalPages:   TotalPages(total, req.Limit),
		ItemsPerPage: req.Limit,
	}
}

// TotalPages returns ceil(total / limit).
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
