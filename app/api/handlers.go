package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/boardswallah/boards-press/app/cfg"
	"github.com/boardswallah/boards-press/app/content"
	"github.com/boardswallah/boards-press/app/feed"
	"github.com/boardswallah/boards-press/app/generation"
	"github.com/boardswallah/boards-press/app/tasks"
)

func NewHandler(cache ReadCacheInterface, publisher PublisherInterface, jobs JobsInterface,
	catalog CatalogInterface, store AdminStore, auth *Authenticator) *Handler {
	return &Handler{
		cache:     cache,
		publisher: publisher,
		jobs:      jobs,
		catalog:   catalog,
		store:     store,
		auth:      auth,
		generator: feed.NewGenerator(),
		sitemap:   feed.NewSitemapBuilder(),
		now:       time.Now,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]any{
		"timestamp": h.now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	status := http.StatusOK
	if err := h.store.Ping(c.Request.Context()); err != nil {
		slog.Error("Health check failed", "error", err)
		health["store"] = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		health["store"] = "ok"
		if count, err := h.store.CountArticles(c.Request.Context()); err == nil {
			health["articles"] = count
		}
	}

	c.JSON(status, health)
}

// parseListFilter reads category, type, featured and limit from the query string.
func parseListFilter(c *gin.Context) (content.ListFilter, error) {
	var filter content.ListFilter
	var problems []string

	if value := c.Query("category"); value != "" {
		category := content.Category(value)
		if !category.Valid() {
			problems = append(problems, "category: unknown value "+strconv.Quote(value))
		}
		filter.Category = category
	}

	if value := c.Query("type"); value != "" {
		articleType, err := content.ParseType(value)
		if err != nil {
			problems = append(problems, "type: "+err.Error())
		}
		filter.Type = articleType
	}

	if value := c.Query("featured"); value != "" {
		featured, err := strconv.ParseBool(value)
		if err != nil {
			problems = append(problems, "featured: must be a boolean")
		}
		filter.Featured = featured
	}

	if value := c.Query("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 0 {
			problems = append(problems, "limit: must be a non-negative integer")
		}
		filter.Limit = limit
	}

	if len(problems) > 0 {
		return content.ListFilter{}, content.NewValidationError(problems...)
	}
	return filter, nil
}

func (h *Handler) ListArticles(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}

	result := h.cache.Articles(c.Request.Context(), filter)
	if result.Err != nil {
		writeError(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, envelope{Data: result.Data})
}

func (h *Handler) GetArticle(c *gin.Context) {
	slug := c.Param("slug")

	result := h.cache.Article(c.Request.Context(), slug)
	if result.Err != nil {
		writeError(c, result.Err)
		return
	}

	if result.Data == nil {
		c.JSON(http.StatusNotFound, envelope{Error: "article not found"})
		return
	}

	c.JSON(http.StatusOK, envelope{Data: result.Data})
}

func (h *Handler) ListSlugs(c *gin.Context) {
	result := h.cache.Slugs(c.Request.Context())
	if result.Err != nil {
		writeError(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, envelope{Data: result.Data})
}

func (h *Handler) ListSchedules(c *gin.Context) {
	class := c.Param("class")
	if class != "10" && class != "12" {
		writeError(c, content.NewValidationError("class: must be 10 or 12"))
		return
	}

	result := h.cache.Schedules(c.Request.Context(), class)
	if result.Err != nil {
		writeError(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, envelope{Data: result.Data})
}

func (h *Handler) GetSettings(c *gin.Context) {
	result := h.cache.Settings(c.Request.Context())
	if result.Err != nil {
		writeError(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, envelope{Data: result.Data})
}

func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Data: h.catalog.Get()})
}

func (h *Handler) GetFeed(c *gin.Context) {
	ctx := c.Request.Context()

	articles := h.cache.Articles(ctx, content.ListFilter{Limit: feed.FeedArticleLimit})
	if articles.Err != nil {
		slog.Error("Feed articles unavailable", "error", articles.Err)
		c.Status(http.StatusServiceUnavailable)
		return
	}

	// Settings only restyle the channel title.
	settings := h.cache.Settings(ctx)
	if settings.Err != nil {
		slog.Warn("Feed settings unavailable", "error", settings.Err)
	}

	rss, err := h.generator.Run(settings.Data, articles.Data)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("X-Feed-Items", strconv.Itoa(min(len(articles.Data), feed.FeedArticleLimit)))
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (h *Handler) GetSitemap(c *gin.Context) {
	slugs := h.cache.Slugs(c.Request.Context())
	if slugs.Err != nil {
		slog.Error("Sitemap slugs unavailable", "error", slugs.Err)
		c.Status(http.StatusServiceUnavailable)
		return
	}

	sitemap, err := h.sitemap.Run(slugs.Data, h.now())
	if err != nil {
		slog.Error("Sitemap generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", sitemap)
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, content.NewValidationError("body: "+err.Error()))
		return
	}

	token, expires, err := h.auth.IssueToken(req.Secret)
	if err != nil {
		if errors.Is(err, ErrAdminDisabled) {
			c.JSON(http.StatusServiceUnavailable, envelope{Error: err.Error()})
			return
		}
		slog.Warn("Rejected admin login", "client", c.ClientIP())
		c.JSON(http.StatusUnauthorized, envelope{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, envelope{Data: gin.H{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	}})
}

func (h *Handler) CreateGeneration(c *gin.Context) {
	var req generation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, content.NewValidationError("body: "+err.Error()))
		return
	}

	job, err := h.jobs.Submit(req)
	if err != nil {
		slog.Warn("Generation request rejected", "subject", req.Subject, "error", err)
		writeError(c, err)
		return
	}

	slog.Info("Generation queued", "job", job.ID, "subject", req.Subject, "class", req.ClassNumber)
	c.JSON(http.StatusAccepted, envelope{Data: jobView(job)})
}

func jobView(job *tasks.Job) jobResponse {
	resp := jobResponse{JobView: job.View()}

	_, _, err := job.Snapshot()
	if err != nil {
		_, kind := classify(err)
		resp.Error = err.Error()
		resp.ErrorKind = kind

		var parse *content.GenerationParseError
		if errors.As(err, &parse) {
			resp.Raw = parse.Raw
		}
	}
	return resp
}

func (h *Handler) GetGeneration(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope{Data: jobView(job)})
}

// PublishGeneration publishes the articles of a finished structured-mode job as one batch.
func (h *Handler) PublishGeneration(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	status, result, _ := job.Snapshot()
	if status != tasks.JobSucceeded || result == nil {
		c.JSON(http.StatusConflict, envelope{Error: "generation job is " + string(status)})
		return
	}
	if result.Mode != generation.ModeStructured || len(result.Articles) == 0 {
		c.JSON(http.StatusConflict, envelope{Error: "generation job has no structured articles to publish"})
		return
	}

	batch := h.publisher.PublishBatch(c.Request.Context(), result.Articles)
	c.JSON(http.StatusOK, envelope{Data: batch.View()})
}

func (h *Handler) CreateBatch(c *gin.Context) {
	var candidates []content.Article
	if err := c.ShouldBindJSON(&candidates); err != nil {
		writeError(c, content.NewValidationError("body: "+err.Error()))
		return
	}
	if len(candidates) == 0 {
		writeError(c, content.NewValidationError("body: at least one article is required"))
		return
	}

	batch := h.publisher.PublishBatch(c.Request.Context(), candidates)
	c.JSON(http.StatusOK, envelope{Data: batch.View()})
}

func (h *Handler) GetBatch(c *gin.Context) {
	batch, ok := h.publisher.Batch(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, envelope{Error: "batch not found"})
		return
	}

	c.JSON(http.StatusOK, envelope{Data: batch.View()})
}

func (h *Handler) RetryBatchRecord(c *gin.Context) {
	var req retryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Index == nil {
		writeError(c, content.NewValidationError("index: required"))
		return
	}

	outcome, err := h.publisher.Retry(c.Request.Context(), c.Param("id"), *req.Index)
	if err != nil {
		status, _ := classify(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		c.JSON(status, envelope{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, envelope{Data: outcome})
}

func (h *Handler) SaveArticle(c *gin.Context) {
	var article content.Article
	if err := c.ShouldBindJSON(&article); err != nil {
		writeError(c, content.NewValidationError("body: "+err.Error()))
		return
	}

	stored, err := h.publisher.Save(c.Request.Context(), article)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope{Data: stored})
}

func (h *Handler) DeleteArticle(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, content.NewValidationError("body: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.Slug) == "" {
		writeError(c, content.NewValidationError("slug: required"))
		return
	}

	if err := h.publisher.Delete(c.Request.Context(), req.Slug, req.Secret); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope{Data: gin.H{"slug": req.Slug, "deleted": true}})
}

func (h *Handler) SaveSettings(c *gin.Context) {
	var settings content.SiteSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		writeError(c, content.NewValidationError("body: "+err.Error()))
		return
	}
	if strings.TrimSpace(settings.SiteTitle) == "" {
		writeError(c, content.NewValidationError("site_title: required"))
		return
	}

	stored, err := h.store.SaveSettings(c.Request.Context(), settings)
	if err != nil {
		slog.Error("Database error", "operation", "save_settings", "error", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope{Data: stored})
}

func (h *Handler) SaveSchedule(c *gin.Context) {
	var schedule content.ExamSchedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		writeError(c, content.NewValidationError("body: "+err.Error()))
		return
	}

	var problems []string
	if schedule.Class != "10" && schedule.Class != "12" {
		problems = append(problems, "class: must be 10 or 12")
	}
	if _, err := time.Parse(time.DateOnly, schedule.ExamDate); err != nil {
		problems = append(problems, "exam_date: must be YYYY-MM-DD")
	}
	if strings.TrimSpace(schedule.Subject) == "" {
		problems = append(problems, "subject: required")
	}
	if len(problems) > 0 {
		writeError(c, content.NewValidationError(problems...))
		return
	}

	stored, err := h.store.UpsertSchedule(c.Request.Context(), schedule)
	if err != nil {
		slog.Error("Database error", "operation", "upsert_schedule", "error", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, envelope{Data: stored})
}
