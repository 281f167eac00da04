package domain

import "time"

type Product struct {
	ID                 string    `json:"id"`
	FarmID             string    `json:"farmId"`
	FarmName           string    `json:"farmName,omitempty"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Category           string    `json:"category,omitempty"`
	PriceCents         int64     `json:"priceCents"`
	DiscountPriceCents *int64    `json:"discountPriceCents,omitempty"`
	Stock              int       `json:"stock"`
	Available          bool      `json:"available"`
	Images             []string  `json:"images,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// UnitPriceCents is the price a buyer pays per unit: the discount price when
// it is set and lower than the list price.
func (p Product) UnitPriceCents() int64 {
	if p.DiscountPriceCents != nil && *p.DiscountPriceCents > 0 && *p.DiscountPriceCents < p.PriceCents {
		return *p.DiscountPriceCents
	}
	return p.PriceCents
}

// Snapshot captures the denormalized product fields a cart line carries.
func (p Product) Snapshot() ProductSnapshot {
	images := make([]string, len(p.Images))
	copy(images, p.Images)
	return ProductSnapshot{
		Name:           p.Name,
		UnitPriceCents: p.UnitPriceCents(),
		Stock:          p.Stock,
		Images:         images,
		SellerName:     p.FarmName,
	}
}
