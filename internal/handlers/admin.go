package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickeybyalsky/rfd-api/internal/authz"
	"github.com/mickeybyalsky/rfd-api/internal/models"
)

type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

func (h *AdminHandler) requireAdmin(c *gin.Context) (models.Account, bool) {
	acct, ok := currentAccount(c)
	if !ok {
		return models.Account{}, false
	}
	if allowed, _ := authz.IsAdmin(acct); !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
		return models.Account{}, false
	}
	return acct, true
}

func (h *AdminHandler) setRole(c *gin.Context, role models.Role, message string) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	username := c.Param("username")
	res := h.db.Model(&models.Account{}).
		Where("username = ?", username).
		Update("role", role)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf(message, username)})
}

// GetAdmins returns all accounts holding the admin role. A public read, like
// the user listing.
func (h *AdminHandler) GetAdmins(c *gin.Context) {
	var admins []models.Account
	if err := h.db.Where("role = ?", models.RoleAdmin).Order("created_at").Find(&admins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch admins"})
		return
	}

	if admins == nil {
		admins = []models.Account{}
	}

	c.JSON(http.StatusOK, admins)
}

// PromoteUser gives a user the admin role
func (h *AdminHandler) PromoteUser(c *gin.Context) {
	h.setRole(c, models.RoleAdmin, "%s is now an admin")
}

// DemoteUser takes the admin role away
func (h *AdminHandler) DemoteUser(c *gin.Context) {
	h.setRole(c, models.RoleUser, "%s is no longer an admin")
}

// BanUser sets the banned role; banned accounts cannot post, comment or vote
func (h *AdminHandler) BanUser(c *gin.Context) {
	h.setRole(c, models.RoleBanned, "%s has been banned")
}

// DeleteUser removes any account (admin override)
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	username := c.Param("username")
	res := h.db.Where("username = ?", username).Delete(&models.Account{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s has been deleted", username)})
}

// DeletePost removes any post (admin override), with the same cleanup as an
// owner delete.
func (h *AdminHandler) DeletePost(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if err := deletePostTree(h.db, post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Post %d has been deleted", post.ID)})
}

// DeleteComment removes any comment (admin override)
func (h *AdminHandler) DeleteComment(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	commentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if err := deleteCommentTree(h.db, comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Comment %d has been deleted", comment.ID)})
}
