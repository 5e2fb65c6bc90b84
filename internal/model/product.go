package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products for category-level pricing
type Category struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Slug      string    `json:"slug" gorm:"type:varchar(191);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a sellable catalog item. A variation points at its parent
// and inherits the parent's categories.
type Product struct {
	ID           int64               `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string              `json:"name" gorm:"type:varchar(255);not null"`
	SKU          string              `json:"sku" gorm:"type:varchar(100);index"`
	ParentID     *int64              `json:"parent_id,omitempty" gorm:"index"`
	RegularPrice decimal.Decimal     `json:"regular_price" gorm:"type:decimal(14,4);not null"`
	SalePrice    decimal.NullDecimal `json:"sale_price" gorm:"type:decimal(14,4)"`
	Categories   []Category          `json:"categories" gorm:"many2many:product_categories;"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// OnSale reports whether the product currently carries a sale price
func (p *Product) OnSale() bool {
	return p.SalePrice.Valid
}

// CurrentPrice is the price shown without any role rule
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.OnSale() {
		return p.SalePrice.Decimal
	}
	return p.RegularPrice
}

// CategoryIDs returns the ids of the product's own categories
func (p *Product) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// ProductRequest is the body for creating or updating a product
type ProductRequest struct {
	Name         string              `json:"name" binding:"required"`
	SKU          string              `json:"sku"`
	ParentID     *int64              `json:"parent_id"`
	RegularPrice decimal.Decimal     `json:"regular_price"`
	SalePrice    decimal.NullDecimal `json:"sale_price"`
	CategoryIDs  []int64             `json:"category_ids"`
}

// CategoryRequest is the body for creating a category
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

// ProductListResponse is a page of products
type ProductListResponse struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
	TotalItems int       `json:"total_items"`
}
