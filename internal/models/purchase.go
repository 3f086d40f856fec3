package models

import "time"

// Purchase records a deal the account bought, with the price at the time.
type Purchase struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	AccountID int       `gorm:"not null;index" json:"account_id"`
	PostID    int       `gorm:"not null" json:"post_id"`
	Title     string    `json:"title"`
	Price     int       `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
