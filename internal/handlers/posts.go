package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickeybyalsky/rfd-api/internal/authz"
	"github.com/mickeybyalsky/rfd-api/internal/models"
	"github.com/mickeybyalsky/rfd-api/internal/votes"
)

type PostHandler struct {
	db     *gorm.DB
	ledger *votes.Ledger
}

func NewPostHandler(db *gorm.DB, ledger *votes.Ledger) *PostHandler {
	return &PostHandler{db: db, ledger: ledger}
}

// GetPosts returns all posts, optionally filtered by author, retailer or
// category query parameters.
func (h *PostHandler) GetPosts(c *gin.Context) {
	query := h.db.Preload("User").Order("created_at desc")

	if author := c.Query("author"); author != "" {
		var acct models.Account
		if err := h.db.Where("username = ?", author).First(&acct).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		query = query.Where("author_id = ?", acct.ID)
	}
	if retailer := c.Query("retailer"); retailer != "" {
		query = query.Where("retailer = ?", retailer)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	// If no posts, return empty array not null
	if posts == nil {
		posts = []models.Post{}
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID and counts the view.
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	res := h.db.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var post models.Post
	if err := h.db.Preload("User").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost creates a new deal thread (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	if allowed, _ := authz.CanPost(acct); !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are banned from creating posts."})
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := models.Post{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		DealURL:     input.DealURL,
		Expiry:      input.Expiry,
		SalePrice:   input.SalePrice,
		Retailer:    input.Retailer,
		AuthorID:    acct.ID,
		Author:      acct.Username,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.Account{}).
			Where("id = ?", acct.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + ?", 1)).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusCreated, post)
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if allowed, _ := authz.CanModify(acct, post.AuthorID); !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to update this post."})
		return
	}

	if input.Title != "" {
		post.Title = input.Title
	}
	if input.Description != "" {
		post.Description = input.Description
	}
	if input.Category != "" {
		post.Category = input.Category
	}
	if input.DealURL != "" {
		post.DealURL = input.DealURL
	}
	if input.Expiry != "" {
		post.Expiry = input.Expiry
	}
	if input.SalePrice != nil {
		post.SalePrice = *input.SalePrice
	}
	if input.Retailer != "" {
		post.Retailer = input.Retailer
	}

	if err := h.db.Save(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}
	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post with its comments and votes (PROTECTED -
// requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
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

	if allowed, _ := authz.CanModify(acct, post.AuthorID); !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to delete this post."})
		return
	}

	if err := deletePostTree(h.db, post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// deletePostTree removes a post together with its comments and every vote
// on any of them, and rolls back the author's post count.
func deletePostTree(db *gorm.DB, post models.Post) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []int
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", post.ID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Post{}, post.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Account{}).
			Where("id = ?", post.AuthorID).
			UpdateColumn("post_count", gorm.Expr("post_count - ?", 1)).Error
	})
}

// VotePost applies an up/down vote intent to a post (PROTECTED)
func (h *PostHandler) VotePost(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Intent must be \"up\" or \"down\""})
		return
	}

	intent, err := votes.ParseIntent(input.Intent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Intent must be \"up\" or \"down\""})
		return
	}

	result, err := h.ledger.ApplyIntent(c.Request.Context(), acct, votes.TargetPost, postID, intent)
	if err != nil {
		writeVoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
