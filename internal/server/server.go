package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mickeybyalsky/rfd-api/internal/auth"
	"github.com/mickeybyalsky/rfd-api/internal/config"
	"github.com/mickeybyalsky/rfd-api/internal/database"
	"github.com/mickeybyalsky/rfd-api/internal/handlers"
	"github.com/mickeybyalsky/rfd-api/internal/middleware"
	"github.com/mickeybyalsky/rfd-api/internal/votes"
)

type Server struct {
	db      database.Service
	cfg     config.Config
	tokens  *auth.TokenService
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer(cfg config.Config) *http.Server {
	db := database.New(cfg)
	tokens := auth.NewTokenService(cfg)
	handler := handlers.NewHandler(db.GetDB(), tokens)

	// Replay reputation deltas left behind by a crash between a vote commit
	// and its reputation update.
	if err := votes.NewLedger(db.GetDB()).RepairPending(context.Background()); err != nil {
		log.Printf("reputation outbox repair failed: %v", err)
	}

	newServer := &Server{
		db:      db,
		cfg:     cfg,
		tokens:  tokens,
		handler: handler,
	}

	router := newServer.RegisterRoutes()

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", cfg.Port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Post routes (public reads)
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)

		// Comment routes (public reads)
		api.GET("/posts/:id/comments", s.handler.Comment.GetComments)
		api.GET("/comments", s.handler.Comment.ListComments)
		api.GET("/comments/:id", s.handler.Comment.GetComment)

		// User routes (public reads)
		api.GET("/users", s.handler.User.GetUsers)
		api.GET("/users/:username", s.handler.User.GetUser)
		api.GET("/admins", s.handler.Admin.GetAdmins)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.RequireAuth(s.tokens, s.db.GetDB()))
		{
			// Current user
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.PUT("/me", s.handler.User.UpdateMe)
			protected.DELETE("/me", s.handler.User.DeleteMe)
			protected.GET("/me/purchases", s.handler.User.GetPurchases)

			// Post protected routes
			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/vote", s.handler.Post.VotePost)
			protected.POST("/posts/:id/bought", s.handler.User.BuyDeal)

			// Comment protected routes
			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
			protected.PUT("/comments/:id", s.handler.Comment.UpdateComment)
			protected.DELETE("/comments/:id", s.handler.Comment.DeleteComment)
			protected.POST("/comments/:id/vote", s.handler.Comment.VoteComment)

			// Admin routes
			admin := protected.Group("/admin")
			{
				admin.POST("/users/:username/promote", s.handler.Admin.PromoteUser)
				admin.POST("/users/:username/demote", s.handler.Admin.DemoteUser)
				admin.POST("/users/:username/ban", s.handler.Admin.BanUser)
				admin.DELETE("/users/:username", s.handler.Admin.DeleteUser)
				admin.DELETE("/posts/:id", s.handler.Admin.DeletePost)
				admin.DELETE("/comments/:id", s.handler.Admin.DeleteComment)
			}
		}
	}

	return r
}
