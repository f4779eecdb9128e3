package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Kamar-Folarin/repo-tracker/docs"
)

// @title Repo Tracker API
// @version 1.0
// @description Syncs and caches the public repositories of GitHub users
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// SetupRouter configures the API routes
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.Health)

		users := v1.Group("/users/:username")
		{
			users.POST("/sync", h.SyncUser)
			users.GET("/repos", h.GetRepositories)
			users.GET("/repos/:repo/commits", h.GetCommits)
			users.GET("/sync-status", h.GetSyncStatus)
			users.DELETE("/sync-status", h.StopTracking)
		}

		v1.GET("/sync-status", h.ListSyncStatuses)
		v1.POST("/sync-all", h.SyncAll)
		v1.GET("/sync-all/progress", h.GetBatchProgress)

		accounts := v1.Group("/accounts")
		{
			accounts.POST("/register", h.Register)
			accounts.POST("/login", h.Login)
		}
	}

	return r
}

// requestLogger logs one line per request through logrus
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"client":   c.ClientIP(),
		}).Debug("Handled request")
	}
}
