package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mickeybyalsky/rfd-api/internal/auth"
	"github.com/mickeybyalsky/rfd-api/internal/config"
	"github.com/mickeybyalsky/rfd-api/internal/models"
)

func setup(t *testing.T) (*gorm.DB, *auth.TokenService, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Account{}))

	tokens := auth.NewTokenService(config.Config{
		JWTSecret: []byte("test-secret"),
		TokenTTL:  time.Minute,
	})

	r := gin.New()
	r.GET("/whoami", RequireAuth(tokens, db), func(c *gin.Context) {
		acct, ok := CurrentAccount(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"username": acct.Username})
	})
	return db, tokens, r
}

func TestRequireAuthResolvesAccount(t *testing.T) {
	db, tokens, r := setup(t)

	acct := models.Account{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&acct).Error)

	token, err := tokens.Issue(acct.ID, acct.Username)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestRequireAuthRejects(t *testing.T) {
	db, tokens, r := setup(t)

	acct := models.Account{Username: "ghost", Email: "ghost@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&acct).Error)
	staleToken, err := tokens.Issue(acct.ID, acct.Username)
	require.NoError(t, err)
	require.NoError(t, db.Delete(&models.Account{}, acct.ID).Error)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-token"},
		{"account deleted", "Bearer " + staleToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
