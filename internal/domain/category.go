package domain

import (
	"strings"
	"time"
)

type Category struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryKey folds a free-form category label ("Laying Hens") into its key
// ("laying-hens").
func CategoryKey(label string) string {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '\t'
	})
	return strings.Join(fields, "-")
}

// Normalize trims the category and derives Key and Slug. Slug falls back to the key.
func (c Category) Normalize() Category {
	c.Key = CategoryKey(c.Key)
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = CategoryKey(c.Slug)
	if c.Slug == "" {
		c.Slug = c.Key
	}
	return c
}
