package models

import "time"

type Account struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FullName     string `json:"full_name,omitempty"`
	Location     string `json:"location,omitempty"`

	Reputation   int  `gorm:"default:0" json:"reputation"`
	PostCount    int  `gorm:"default:0" json:"post_count"`
	CommentCount int  `gorm:"default:0" json:"comment_count"`
	SpentTotal   int  `gorm:"default:0" json:"spent_total"`
	Role         Role `gorm:"type:varchar(16);default:'user'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=100"`
	FullName string `json:"full_name"`
	Location string `json:"location"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Location string `json:"location"`
}

type AuthResponse struct {
	Token   string  `json:"token"`
	User    Account `json:"user"`
	Message string  `json:"message"`
}
