package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boardswallah/boards-press/app/cfg"
)

// NewServer creates the HTTP engine with all routes configured.
func NewServer(handler *Handler, limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health", "/metrics"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, limiter)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, limiter *RateLimiter) {
	r.GET("/health", handler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/feed.xml", handler.GetFeed)
	r.GET("/sitemap.xml", handler.GetSitemap)

	public := r.Group("/api")
	{
		public.GET("/articles", handler.ListArticles)
		public.GET("/articles/:slug", handler.GetArticle)
		public.GET("/slugs", handler.ListSlugs)
		public.GET("/schedules/:class", handler.ListSchedules)
		public.GET("/settings", handler.GetSettings)
		public.GET("/catalog", handler.GetCatalog)
	}

	r.POST("/api/admin/login", limiter.Middleware(), handler.AdminLogin)

	admin := r.Group("/api/admin")
	admin.Use(handler.auth.Middleware())
	{
		admin.POST("/generations", limiter.Middleware(), handler.CreateGeneration)
		admin.GET("/generations/:id", handler.GetGeneration)
		admin.POST("/generations/:id/publish", handler.PublishGeneration)
		admin.POST("/batches", handler.CreateBatch)
		admin.GET("/batches/:id", handler.GetBatch)
		admin.POST("/batches/:id/retry", handler.RetryBatchRecord)
		admin.PUT("/articles", handler.SaveArticle)
		admin.POST("/articles/delete", handler.DeleteArticle)
		admin.PUT("/settings", handler.SaveSettings)
		admin.PUT("/schedules", handler.SaveSchedule)
	}

	if handler.auth.Enabled() {
		slog.Info("Admin endpoints enabled with authentication")
	} else {
		slog.Warn("Admin endpoints disabled (ADMIN_SECRET not set)")
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "BoardsPress",
			"version":     cfg.GetVersion(),
			"description": "Exam content generation and publishing backend for BoardsWallah",
			"endpoints": map[string]string{
				"articles":  "/api/articles",
				"article":   "/api/articles/<slug>",
				"slugs":     "/api/slugs",
				"schedules": "/api/schedules/<class>",
				"settings":  "/api/settings",
				"catalog":   "/api/catalog",
				"feed":      "/feed.xml",
				"sitemap":   "/sitemap.xml",
				"health":    "/health",
				"metrics":   "/metrics",
			},
			"admin": map[string]any{
				"enabled": handler.auth.Enabled(),
				"header":  "X-API-Key or Authorization: Bearer <token>",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}
