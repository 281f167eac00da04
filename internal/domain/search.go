package domain

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"

	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// ProductFilter narrows a catalog search. Zero values mean "no constraint".
type ProductFilter struct {
	Text          string
	Category      string
	FarmID        string
	MinPriceCents *int64
	MaxPriceCents *int64
	InStockOnly   bool
	Sort          string
	Limit         int
	Offset        int
}

// Normalized clamps paging and defaults the sort order.
func (f ProductFilter) Normalized() ProductFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	if f.Limit > MaxSearchLimit {
		f.Limit = MaxSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.Sort {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortName:
	default:
		f.Sort = SortNewest
	}
	return f
}

type ProductPage struct {
	Results []Product `json:"results"`
	Total   int       `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}
