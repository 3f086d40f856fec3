package models

import "time"

// Post is a deal thread. Tally is the signed vote score, maintained
// incrementally by the vote ledger, never recounted.
type Post struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	DealURL     string `json:"deal_url,omitempty"`
	Expiry      string `json:"expiry,omitempty"`
	SalePrice   int    `json:"sale_price,omitempty"`
	Retailer    string `json:"retailer,omitempty"`

	AuthorID int     `gorm:"index" json:"author_id"`
	Author   string  `json:"author"`
	User     Account `gorm:"foreignKey:AuthorID" json:"user"`

	Tally       int `gorm:"default:0" json:"tally"`
	Views       int `gorm:"default:0" json:"views"`
	Comments    int `gorm:"default:0" json:"comments"`
	BoughtCount int `gorm:"default:0" json:"bought_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreatePostRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category"`
	DealURL     string `json:"deal_url"`
	Expiry      string `json:"expiry"`
	SalePrice   int    `json:"sale_price"`
	Retailer    string `json:"retailer"`
}

// UpdatePostRequest carries partial updates; absent fields are left alone.
// SalePrice is a pointer so a deal can be updated to free.
type UpdatePostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	DealURL     string `json:"deal_url"`
	Expiry      string `json:"expiry"`
	SalePrice   *int   `json:"sale_price"`
	Retailer    string `json:"retailer"`
}
