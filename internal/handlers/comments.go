package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickeybyalsky/rfd-api/internal/authz"
	"github.com/mickeybyalsky/rfd-api/internal/models"
	"github.com/mickeybyalsky/rfd-api/internal/votes"
)

type CommentHandler struct {
	db     *gorm.DB
	ledger *votes.Ledger
}

func NewCommentHandler(db *gorm.DB, ledger *votes.Ledger) *CommentHandler {
	return &CommentHandler{db: db, ledger: ledger}
}

// GetComments returns all comments for a post
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var comments []models.Comment
	if err := h.db.Where("post_id = ?", postID).Preload("User").Order("created_at desc").Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}

	c.JSON(http.StatusOK, comments)
}

// GetComment returns a single comment by ID
func (h *CommentHandler) GetComment(c *gin.Context) {
	commentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var comment models.Comment
	if err := h.db.Preload("User").First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	c.JSON(http.StatusOK, comment)
}

// ListComments returns all comments, optionally filtered by author username
// and/or post ID query parameters.
func (h *CommentHandler) ListComments(c *gin.Context) {
	query := h.db.Preload("User").Order("created_at desc")

	if username := c.Query("username"); username != "" {
		var acct models.Account
		if err := h.db.Where("username = ?", username).First(&acct).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		query = query.Where("author_id = ?", acct.ID)
	}
	if raw := c.Query("post_id"); raw != "" {
		postID, err := strconv.Atoi(raw)
		if err != nil || postID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post_id format. It must be a numeric ID."})
			return
		}
		var post models.Post
		if err := h.db.First(&post, postID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		query = query.Where("post_id = ?", postID)
	}

	var comments []models.Comment
	if err := query.Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}

	c.JSON(http.StatusOK, comments)
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	if allowed, _ := authz.CanPost(acct); !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are banned from creating comments."})
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	comment := models.Comment{
		Body:     input.Body,
		PostID:   post.ID,
		AuthorID: acct.ID,
		Author:   acct.Username,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumn("comments", gorm.Expr("comments + ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Account{}).
			Where("id = ?", acct.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	h.db.Preload("User").First(&comment, comment.ID)
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment updates a comment (owner only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	var input models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if allowed, _ := authz.CanModify(acct, comment.AuthorID); !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to update this comment."})
		return
	}

	comment.Body = input.Body
	if err := h.db.Save(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}
	h.db.Preload("User").First(&comment, comment.ID)

	c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment and its votes (owner only)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	acct, ok := currentAccount(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if allowed, _ := authz.CanModify(acct, comment.AuthorID); !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to delete this comment."})
		return
	}

	if err := deleteCommentTree(h.db, comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// deleteCommentTree removes a comment with its votes and rolls back the
// denormalized counters.
func deleteCommentTree(db *gorm.DB, comment models.Comment) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Comment{}, comment.ID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comments", gorm.Expr("comments - ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Account{}).
			Where("id = ?", comment.AuthorID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1)).Error
	})
}

// VoteComment applies an up/down vote intent to a comment (PROTECTED)
func (h *CommentHandler) VoteComment(c *gin.Context) {
	commentID, ok := parseID(c, "id")
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

	result, err := h.ledger.ApplyIntent(c.Request.Context(), acct, votes.TargetComment, commentID, intent)
	if err != nil {
		writeVoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
