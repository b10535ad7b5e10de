package domain

type CustomerType string

const (
	CustomerTypeAny        CustomerType = ""
	CustomerTypeIndividual CustomerType = "INDIVIDUAL"
	CustomerTypeCorporate  CustomerType = "CORPORATE"
)

type CustomerStatus string

const (
	CustomerStatusAny      CustomerStatus = ""
	CustomerStatusActive   CustomerStatus = "ACTIVE"
	CustomerStatusInactive CustomerStatus = "INACTIVE"
)

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

const (
	DefaultPageSize = 10
	// PaginationThreshold is the item count at or below which pagination is hidden,
	// independent of the page size.
	PaginationThreshold = 10
)

// Customer is a read-through copy of a backend-owned customer. Timestamps
// are kept as the backend formats them.
type Customer struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Type      CustomerType   `json:"type"`
	Status    CustomerStatus `json:"status"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

// CustomerFilter drives the customer list query.
type CustomerFilter struct {
	Search        string         `json:"search"`
	Type          CustomerType   `json:"type"`
	Status        CustomerStatus `json:"status"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	SortDirection SortDirection  `json:"customerSort"`
}

// DefaultCustomerFilter is the filter state after mount and after reset.
func DefaultCustomerFilter() CustomerFilter {
	return CustomerFilter{
		Page:          0,
		Size:          DefaultPageSize,
		SortDirection: SortAsc,
	}
}

// WithPage returns a copy of f on page p. Negative pages clamp to 0.
func (f CustomerFilter) WithPage(p int) CustomerFilter {
	if p < 0 {
		p = 0
	}
	f.Page = p
	return f
}

// ListResult is the normalized outcome of one list query.
type ListResult struct {
	Items      []Customer `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPages int        `json:"totalPages"`
}

// EmptyListResult is what unrecognised payloads and failed queries yield.
func EmptyListResult() ListResult {
	return ListResult{Items: []Customer{}, TotalItems: 0, TotalPages: 1}
}

// ShowPagination reports whether the pagination control is rendered.
func ShowPagination(totalItems int) bool {
	return totalItems > PaginationThreshold
}
