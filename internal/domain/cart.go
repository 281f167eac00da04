package domain

import "time"

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 999

// ValidLineQuantity reports whether q may be stored on a cart line.
func ValidLineQuantity(q int) bool {
	return q >= 1 && q <= MaxLineQuantity
}

// ProductSnapshot is the product data denormalized onto a cart line.
type ProductSnapshot struct {
	Name           string   `json:"name"`
	UnitPriceCents int64    `json:"unitPriceCents"`
	Stock          int      `json:"stock"`
	Images         []string `json:"images,omitempty"`
	SellerName     string   `json:"sellerName,omitempty"`
}

type CartLine struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   ProductSnapshot `json:"product"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (l CartLine) TotalCents() int64 {
	return l.Product.UnitPriceCents * int64(l.Quantity)
}

// Cart is the logical cart of one actor. ItemCount and SubtotalCents are
// derived from Lines by Recalculate.
type Cart struct {
	Lines         []CartLine `json:"lines"`
	ItemCount     int        `json:"itemCount"`
	SubtotalCents int64      `json:"subtotalCents"`
}

// NewCart builds a cart with totals computed from lines.
func NewCart(lines []CartLine) *Cart {
	if lines == nil {
		lines = []CartLine{}
	}
	c := &Cart{Lines: lines}
	c.Recalculate()
	return c
}

func (c *Cart) Recalculate() {
	c.ItemCount = 0
	c.SubtotalCents = 0
	for _, line := range c.Lines {
		c.ItemCount += line.Quantity
		c.SubtotalCents += line.TotalCents()
	}
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// LineByProduct returns the index of the line holding productID, or -1.
func (c *Cart) LineByProduct(productID string) int {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
