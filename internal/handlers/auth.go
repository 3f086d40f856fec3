package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mickeybyalsky/rfd-api/internal/auth"
	"github.com/mickeybyalsky/rfd-api/internal/models"
)

type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.TokenService
}

func NewAuthHandler(db *gorm.DB, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Check if username or email already exists
	var existing models.Account
	if err := h.db.Where("username = ? OR email = ?", input.Username, input.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists. Please select another."})
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	acct := models.Account{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Location:     input.Location,
		Role:         models.RoleUser,
	}

	if err := h.db.Create(&acct).Error; err != nil {
		// A racing registration with the same username lands here via the
		// unique constraint.
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists. Please select another."})
		return
	}

	token, err := h.tokens.Issue(acct.ID, acct.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, models.AuthResponse{
		Token:   token,
		User:    acct,
		Message: "User registered successfully",
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var acct models.Account
	if err := h.db.Where("username = ?", input.Username).First(&acct).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPassword(input.Password, acct.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(acct.ID, acct.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:   token,
		User:    acct,
		Message: "Login successful",
	})
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	acct, ok := currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, acct)
}
