package domain

import "github.com/shopspring/decimal"

// Product is the catalog entry. ID is a uuid string assigned at creation
// and never reused; Slug is unique across all products (enforced by the
// idx_products_slug unique index).
type Product struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Slug        string          `db:"slug"`
	Price       decimal.Decimal `db:"price"`
	Description *string         `db:"description"`
	ImagePath   *string         `db:"image_path"`
	CreatedAt   string          `db:"created_at"`
	UpdatedAt   string          `db:"updated_at"`
}

// ImageURL is what templates link to; empty when no image is attached.
func (p Product) ImageURL() string {
	if p.ImagePath == nil || *p.ImagePath == "" {
		return ""
	}
	return "/media/" + *p.ImagePath
}

// PriceDisplay renders the price at exactly two decimal places.
func (p Product) PriceDisplay() string {
	return p.Price.StringFixed(2)
}
