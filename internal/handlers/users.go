package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickeybyalsky/rfd-api/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetUsers returns all accounts
func (h *UserHandler) GetUsers(c *gin.Context) {
	var accounts []models.Account
	if err := h.db.Order("created_at").Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	if accounts == nil {
		accounts = []models.Account{}
	}

	c.JSON(http.StatusOK, accounts)
}

// GetUser returns a user's profile with their posts
func (h *UserHandler) GetUser(c *gin.Context) {
	username := c.Param("username")

	var acct models.Account
	if err := h.db.Where("username = ?", username).First(&acct).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("User '%s' not found.", username)})
		return
	}

	var posts []models.Post
	h.db.Where("author_id = ?", acct.ID).Order("created_at desc").Find(&posts)
	if posts == nil {
		posts = []models.Post{}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  acct,
		"posts": posts,
	})
}

// UpdateMe updates the current user's profile fields. The username is the
// immutable key and is never updatable.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Email == "" && input.FullName == "" && input.Location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update."})
		return
	}

	if input.Email != "" {
		acct.Email = input.Email
	}
	if input.FullName != "" {
		acct.FullName = input.FullName
	}
	if input.Location != "" {
		acct.Location = input.Location
	}

	if err := h.db.Save(&acct).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, acct)
}

// DeleteMe removes the current user's account
func (h *UserHandler) DeleteMe(c *gin.Context) {
	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	if err := h.db.Delete(&models.Account{}, acct.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User %s removed.", acct.Username)})
}

// BuyDeal records that the current user bought the deal: bumps the post's
// bought count, adds the sale price to the buyer's running total and keeps a
// purchase record.
func (h *UserHandler) BuyDeal(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumn("bought_count", gorm.Expr("bought_count + ?", 1)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).
			Where("id = ?", acct.ID).
			UpdateColumn("spent_total", gorm.Expr("spent_total + ?", post.SalePrice)).Error; err != nil {
			return err
		}
		return tx.Create(&models.Purchase{
			AccountID: acct.ID,
			PostID:    post.ID,
			Title:     post.Title,
			Price:     post.SalePrice,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record purchase"})
		return
	}

	var updated models.Account
	h.db.First(&updated, acct.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message":     fmt.Sprintf("Added $%d to %s's spending total.", post.SalePrice, acct.Username),
		"spent_total": updated.SpentTotal,
	})
}

// GetPurchases returns the current user's purchases to date
func (h *UserHandler) GetPurchases(c *gin.Context) {
	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	var purchases []models.Purchase
	if err := h.db.Where("account_id = ?", acct.ID).Order("created_at desc").Find(&purchases).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchases"})
		return
	}

	if purchases == nil {
		purchases = []models.Purchase{}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   fmt.Sprintf("%s's purchases to date.", acct.Username),
		"purchases": purchases,
	})
}
