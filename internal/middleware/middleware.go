package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickeybyalsky/rfd-api/internal/auth"
	"github.com/mickeybyalsky/rfd-api/internal/models"
)

const accountKey = "account"

// RequireAuth resolves the bearer token on the request to the caller's
// current account record. This is the only path by which a handler sees a
// "current user": token verification, then an account load by subject. A
// token for a deleted account is rejected even before expiry.
func RequireAuth(tokens *auth.TokenService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		var acct models.Account
		if err := db.First(&acct, claims.UserID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}

		if !acct.Role.Valid() {
			// Bad stored record; never let it through as some ad hoc role.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account record is invalid"})
			return
		}

		c.Set("user_id", acct.ID)
		c.Set("username", acct.Username)
		c.Set(accountKey, acct)
		c.Next()
	}
}

// CurrentAccount returns the account RequireAuth stored on the context.
func CurrentAccount(c *gin.Context) (models.Account, bool) {
	raw, exists := c.Get(accountKey)
	if !exists {
		return models.Account{}, false
	}
	acct, ok := raw.(models.Account)
	return acct, ok
}
