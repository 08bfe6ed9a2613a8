package database

import (
	"context"

	"github.com/boardswallah/boards-press/app/content"
)

type ArticleRepository interface {
	// UpsertArticle inserts or overwrites the article with the same slug and returns the stored record.
	// On update, views and created_at are preserved.
	UpsertArticle(ctx context.Context, article content.Article) (content.Article, error)
	GetArticle(ctx context.Context, slug string) (*content.Article, error)
	ListArticles(ctx context.Context, filter content.ListFilter) ([]content.Article, error)
	ListSlugs(ctx context.Context) ([]content.SlugEntry, error)
	CountArticles(ctx context.Context) (int, error)
	// DeleteArticle removes the article by slug and reports whether a row existed.
	DeleteArticle(ctx context.Context, slug string) (bool, error)
}

type ScheduleRepository interface {
	ListSchedules(ctx context.Context, class string) ([]content.ExamSchedule, error)
	UpsertSchedule(ctx context.Context, schedule content.ExamSchedule) (content.ExamSchedule, error)
}

type SettingsRepository interface {
	GetSettings(ctx context.Context) (*content.SiteSettings, error)
	SaveSettings(ctx context.Context, settings content.SiteSettings) (content.SiteSettings, error)
}

// Store is the full Content Store contract. Implementations are selected once at startup.
type Store interface {
	ArticleRepository
	ScheduleRepository
	SettingsRepository
	Ping(ctx context.Context) error
	Close() error
}
