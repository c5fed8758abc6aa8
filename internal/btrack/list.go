package btrack

// Paging bounds for listing records.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListOptions filters and pages a record listing.
type ListOptions struct {
	Fixed  *bool // nil lists both fixed and open records
	Limit  int
	Offset int
}

// Normalize clamps the options into range: a limit outside 1..MaxLimit
// becomes DefaultLimit when unset or non-positive and MaxLimit when too
// large; a negative offset becomes 0.
func (o ListOptions) Normalize() ListOptions {
	switch {
	case o.Limit <= 0:
		o.Limit = DefaultLimit
	case o.Limit > MaxLimit:
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Page is one page of a listing.
type Page struct {
	Items  []Record `json:"items"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}
