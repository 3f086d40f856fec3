package models

import "time"

type Comment struct {
	ID       int     `gorm:"primaryKey" json:"id"`
	Body     string  `gorm:"not null" json:"body"`
	AuthorID int     `gorm:"index" json:"author_id"`
	Author   string  `json:"author"`
	User     Account `gorm:"foreignKey:AuthorID" json:"user"`
	PostID   int     `gorm:"index" json:"post_id"`
	Tally    int     `gorm:"default:0" json:"tally"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

type UpdateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}
