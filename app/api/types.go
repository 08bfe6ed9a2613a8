package api

import (
	"context"
	"time"

	"github.com/boardswallah/boards-press/app/catalog"
	"github.com/boardswallah/boards-press/app/content"
	"github.com/boardswallah/boards-press/app/database"
	"github.com/boardswallah/boards-press/app/feed"
	"github.com/boardswallah/boards-press/app/generation"
	"github.com/boardswallah/boards-press/app/publish"
	"github.com/boardswallah/boards-press/app/readcache"
	"github.com/boardswallah/boards-press/app/tasks"
)

// ReadCacheInterface is the read side served to the public site.
type ReadCacheInterface interface {
	Articles(ctx context.Context, filter content.ListFilter) readcache.Result[[]content.Article]
	Article(ctx context.Context, slug string) readcache.Result[*content.Article]
	Slugs(ctx context.Context) readcache.Result[[]content.SlugEntry]
	Schedules(ctx context.Context, class string) readcache.Result[[]content.ExamSchedule]
	Settings(ctx context.Context) readcache.Result[*content.SiteSettings]
}

type PublisherInterface interface {
	Save(ctx context.Context, article content.Article) (content.Article, error)
	PublishBatch(ctx context.Context, candidates []content.Article) *publish.Batch
	Batch(id string) (*publish.Batch, bool)
	Retry(ctx context.Context, batchID string, index int) (publish.Outcome, error)
	Delete(ctx context.Context, slug, secret string) error
}

type JobsInterface interface {
	Submit(req generation.Request) (*tasks.Job, error)
	Get(id string) (*tasks.Job, error)
}

type CatalogInterface interface {
	Get() *catalog.Catalog
}

// AdminStore holds the writes that bypass the publish pipeline.
type AdminStore interface {
	database.ScheduleRepository
	database.SettingsRepository
	CountArticles(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type FeedGeneratorInterface interface {
	Run(settings *content.SiteSettings, articles []content.Article) (string, error)
}

type SitemapBuilderInterface interface {
	Run(entries []content.SlugEntry, now time.Time) ([]byte, error)
}

var (
	_ ReadCacheInterface      = (*readcache.Cache)(nil)
	_ PublisherInterface      = (*publish.Pipeline)(nil)
	_ JobsInterface           = (*tasks.Jobs)(nil)
	_ CatalogInterface        = (*catalog.Store)(nil)
	_ AdminStore              = (database.Store)(nil)
	_ FeedGeneratorInterface  = (*feed.Generator)(nil)
	_ SitemapBuilderInterface = (*feed.SitemapBuilder)(nil)
)

type Handler struct {
	cache     ReadCacheInterface
	publisher PublisherInterface
	jobs      JobsInterface
	catalog   CatalogInterface
	store     AdminStore
	auth      *Authenticator
	generator FeedGeneratorInterface
	sitemap   SitemapBuilderInterface
	now       func() time.Time
}

// envelope is the body of every read endpoint.
type envelope struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

type loginRequest struct {
	Secret string `json:"secret"`
}

type deleteRequest struct {
	Slug   string `json:"slug"`
	Secret string `json:"secret"`
}

type retryRequest struct {
	Index *int `json:"index"`
}

// jobResponse adds error details to a job view.
type jobResponse struct {
	tasks.JobView
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Raw       string `json:"raw,omitempty"`
}
