package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boardswallah/boards-press/app/content"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. Used for local previews and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	articles  map[string]content.Article
	schedules map[string]content.ExamSchedule
	settings  *content.SiteSettings
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		articles:  make(map[string]content.Article),
		schedules: make(map[string]content.ExamSchedule),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) UpsertArticle(_ context.Context, article content.Article) (content.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if article.PublishDate.IsZero() {
		article.PublishDate = now
	}
	article.PublishDate = article.PublishDate.UTC()
	article.Tags = append([]string{}, article.Tags...)
	article.UpdatedAt = now

	if existing, ok := s.articles[article.Slug]; ok {
		article.ID = existing.ID
		article.Views = existing.Views
		article.CreatedAt = existing.CreatedAt
	} else {
		article.ID = uuid.NewString()
		article.Views = 0
		article.CreatedAt = now
	}

	s.articles[article.Slug] = article
	return article, nil
}

func (s *MemoryStore) GetArticle(_ context.Context, slug string) (*content.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	article, ok := s.articles[slug]
	if !ok {
		return nil, nil
	}
	return &article, nil
}

func (s *MemoryStore) ListArticles(_ context.Context, filter content.ListFilter) ([]content.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	articles := []content.Article{}
	for _, article := range s.articles {
		if filter.Category != "" && article.Category != filter.Category {
			continue
		}
		if filter.Type != "" && article.Type != filter.Type {
			continue
		}
		if filter.Featured && !article.Featured {
			continue
		}
		articles = append(articles, article)
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishDate.After(articles[j].PublishDate)
	})

	if filter.Limit > 0 && len(articles) > filter.Limit {
		articles = articles[:filter.Limit]
	}

	return articles, nil
}

func (s *MemoryStore) ListSlugs(ctx context.Context) ([]content.SlugEntry, error) {
	articles, _ := s.ListArticles(ctx, content.ListFilter{})

	entries := make([]content.SlugEntry, 0, len(articles))
	for _, article := range articles {
		entries = append(entries, content.SlugEntry{
			Slug:        article.Slug,
			PublishDate: article.PublishDate,
			UpdatedAt:   article.UpdatedAt,
			Featured:    article.Featured,
		})
	}
	return entries, nil
}

func (s *MemoryStore) CountArticles(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles), nil
}

func (s *MemoryStore) DeleteArticle(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.articles[slug]
	delete(s.articles, slug)
	return ok, nil
}

func (s *MemoryStore) ListSchedules(_ context.Context, class string) ([]content.ExamSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules := []content.ExamSchedule{}
	for _, schedule := range s.schedules {
		if schedule.Class == class {
			schedules = append(schedules, schedule)
		}
	}

	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].ExamDate < schedules[j].ExamDate
	})

	return schedules, nil
}

func (s *MemoryStore) UpsertSchedule(_ context.Context, schedule content.ExamSchedule) (content.ExamSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := schedule.Class + "|" + schedule.ExamDate
	if existing, ok := s.schedules[key]; ok {
		schedule.ID = existing.ID
	} else {
		schedule.ID = uuid.NewString()
	}

	s.schedules[key] = schedule
	return schedule, nil
}

func (s *MemoryStore) GetSettings(context.Context) (*content.SiteSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, nil
	}
	settings := *s.settings
	return &settings, nil
}

func (s *MemoryStore) SaveSettings(_ context.Context, settings content.SiteSettings) (content.SiteSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.UpdatedAt = s.now()
	s.settings = &settings
	return settings, nil
}
