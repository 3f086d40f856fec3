package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickeybyalsky/rfd-api/internal/auth"
	"github.com/mickeybyalsky/rfd-api/internal/middleware"
	"github.com/mickeybyalsky/rfd-api/internal/models"
	"github.com/mickeybyalsky/rfd-api/internal/votes"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
	Admin   *AdminHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, tokens *auth.TokenService) *Handler {
	ledger := votes.NewLedger(db)

	return &Handler{
		Auth:    NewAuthHandler(db, tokens),
		Post:    NewPostHandler(db, ledger),
		Comment: NewCommentHandler(db, ledger),
		User:    NewUserHandler(db),
		Admin:   NewAdminHandler(db),
	}
}

// currentAccount pulls the resolved account off the context. The auth
// middleware guarantees it is present on protected routes; a missing account
// means a wiring mistake, surfaced as 401.
func currentAccount(c *gin.Context) (models.Account, bool) {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Account{}, false
	}
	return acct, true
}

// parseID validates a numeric path id before any storage access.
func parseID(c *gin.Context, param string) (int, bool) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id format. It must be a numeric ID."})
		return 0, false
	}
	return id, true
}

// writeVoteError maps ledger errors onto boundary statuses. AlreadyVoted is
// a 400 distinct from success so a toggle and a no-op never look the same to
// the caller.
func writeVoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, votes.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
	case errors.Is(err, votes.ErrBanned):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are banned from voting"})
	case errors.Is(err, votes.ErrSelfVote):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot vote on your own content!"})
	case errors.Is(err, votes.ErrAlreadyVoted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You already cast this vote"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply vote"})
	}
}
