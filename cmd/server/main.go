package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/plothook/api/internal/cache"
	"github.com/plothook/api/internal/config"
	"github.com/plothook/api/internal/database"
	"github.com/plothook/api/internal/handler"
	"github.com/plothook/api/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis is an optimization for join-code lookups; run without it if
	// it is unreachable.
	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		redisCache = nil
	}
	if redisCache != nil {
		defer redisCache.Close()
	}

	var googleConfig *oauth2.Config
	if cfg.GoogleClientID != "" {
		googleConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		}
	}

	authHandler := handler.NewAuthHandler(db, cfg.JWTSecret, googleConfig, cfg.FrontendURL)
	userHandler := handler.NewUserHandler(db)
	worldHandler := handler.NewWorldHandler(db, redisCache)
	categoryHandler := handler.NewCategoryHandler(db)
	entryHandler := handler.NewEntryHandler(db)
	sessionHandler := handler.NewSessionHandler(db)
	questHandler := handler.NewQuestHandler(db)

	r := gin.Default()
	r.Use(middleware.MetricsMiddleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", cfg.FrontendURL)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/google", authHandler.GoogleAuth)
		auth.GET("/google/callback", authHandler.GoogleCallback)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.AuthMiddleware(cfg.JWTSecret), authHandler.Me)
	}

	// Public profiles
	api.GET("/profiles/:username", middleware.OptionalAuthMiddleware(cfg.JWTSecret), userHandler.PublicProfile)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		// Users
		protected.GET("/users", userHandler.List)
		protected.PUT("/users/me", userHandler.UpdateMe)
		protected.PUT("/users/me/profile", userHandler.UpdateMyProfile)
		protected.POST("/users/me/password", userHandler.ChangePassword)
		protected.POST("/users/me/theme", userHandler.ToggleTheme)
		protected.DELETE("/users/me", userHandler.DeleteMe)

		// Worlds
		protected.POST("/worlds", worldHandler.Create)
		protected.GET("/worlds", worldHandler.List)
		protected.GET("/worlds/:id", worldHandler.Get)
		protected.PUT("/worlds/:id", worldHandler.Update)
		protected.DELETE("/worlds/:id", worldHandler.Delete)
		protected.POST("/join", worldHandler.Join)
		protected.POST("/worlds/:id/leave", worldHandler.Leave)
		protected.GET("/worlds/:id/members", worldHandler.Members)
		protected.PUT("/worlds/:id/members/:userId", worldHandler.UpdateMember)
		protected.DELETE("/worlds/:id/members/:userId", worldHandler.RemoveMember)

		// Categories
		protected.POST("/categories", categoryHandler.Create)
		protected.GET("/categories", categoryHandler.List)
		protected.GET("/categories/:id", categoryHandler.Get)
		protected.PUT("/categories/:id", categoryHandler.Update)
		protected.DELETE("/categories/:id", categoryHandler.Delete)
		protected.GET("/categories/:id/children", categoryHandler.Children)
		protected.GET("/categories/:id/entries", categoryHandler.Entries)

		// Entries
		protected.POST("/entries", entryHandler.Create)
		protected.GET("/entries", entryHandler.List)
		protected.GET("/entries/:id", entryHandler.Get)
		protected.PUT("/entries/:id", entryHandler.Update)
		protected.DELETE("/entries/:id", entryHandler.Delete)
		protected.GET("/entries/:id/hidden-blocks", entryHandler.HiddenBlocks)
		protected.POST("/entries/:id/hidden-blocks", entryHandler.CreateHiddenBlock)
		protected.PUT("/entries/:id/hidden-blocks/:blockId", entryHandler.UpdateHiddenBlock)
		protected.DELETE("/entries/:id/hidden-blocks/:blockId", entryHandler.DeleteHiddenBlock)
		protected.GET("/entries/:id/references", entryHandler.References)
		protected.POST("/entries/:id/references", entryHandler.CreateReference)
		protected.DELETE("/entries/:id/references/:refId", entryHandler.DeleteReference)

		// Sessions
		protected.POST("/sessions", sessionHandler.Create)
		protected.GET("/sessions", sessionHandler.List)
		protected.GET("/sessions/:id", sessionHandler.Get)
		protected.PUT("/sessions/:id", sessionHandler.Update)
		protected.DELETE("/sessions/:id", sessionHandler.Delete)
		protected.POST("/sessions/:id/start", sessionHandler.Start)
		protected.POST("/sessions/:id/end", sessionHandler.End)
		protected.POST("/sessions/:id/cancel", sessionHandler.Cancel)
		protected.GET("/sessions/:id/notes", sessionHandler.Notes)
		protected.POST("/sessions/:id/notes", sessionHandler.CreateNote)
		protected.GET("/sessions/:id/quest-progress", sessionHandler.QuestProgress)
		protected.POST("/sessions/:id/quest-progress", sessionHandler.UpsertQuestProgress)

		// Quests
		protected.POST("/quests", questHandler.Create)
		protected.GET("/quests", questHandler.List)
		protected.GET("/quests/:id", questHandler.Get)
		protected.PUT("/quests/:id", questHandler.Update)
		protected.DELETE("/quests/:id", questHandler.Delete)
		protected.POST("/quests/:id/complete", questHandler.Complete)
		protected.POST("/quests/:id/fail", questHandler.Fail)
		protected.POST("/quests/:id/abandon", questHandler.Abandon)
	}

	log.Printf("API server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
