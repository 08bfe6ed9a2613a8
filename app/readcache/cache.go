package readcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/boardswallah/boards-press/app/content"
	"github.com/boardswallah/boards-press/app/metrics"
)

type Kind string

const (
	KindList     Kind = "list"
	KindArticle  Kind = "article"
	KindSlugs    Kind = "slugs"
	KindSchedule Kind = "schedule"
	KindSettings Kind = "settings"
)

// TTLs is how long each query kind may be served from cache.
type TTLs struct {
	List     time.Duration
	Article  time.Duration
	Slugs    time.Duration
	Schedule time.Duration
	Settings time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		List:     60 * time.Second,
		Article:  300 * time.Second,
		Slugs:    300 * time.Second,
		Schedule: 86400 * time.Second,
		Settings: 3600 * time.Second,
	}
}

// Reader is the read side of the content store.
type Reader interface {
	GetArticle(ctx context.Context, slug string) (*content.Article, error)
	ListArticles(ctx context.Context, filter content.ListFilter) ([]content.Article, error)
	ListSlugs(ctx context.Context) ([]content.SlugEntry, error)
	ListSchedules(ctx context.Context, class string) ([]content.ExamSchedule, error)
	GetSettings(ctx context.Context) (*content.SiteSettings, error)
}

// Result pairs data with an error marker. A non-nil Err means the store could not be
// reached and Data is the zero value; an empty Data with nil Err means there is nothing.
type Result[T any] struct {
	Data T
	Err  error
}

// Cache serves public read queries with bounded staleness. It never pushes invalidations;
// entries simply expire.
type Cache struct {
	reader  Reader
	backend Backend
	ttls    TTLs
	group   singleflight.Group
}

func New(reader Reader, backend Backend, ttls TTLs) *Cache {
	return &Cache{reader: reader, backend: backend, ttls: ttls}
}

// fetchTimeout bounds a shared store call once no caller is left to cancel it.
const fetchTimeout = 10 * time.Second

// Key builds the cache key for a query kind from its full parameter set.
// url.Values encodes keys in sorted order, so equal filters always share a key.
func Key(kind Kind, params url.Values) string {
	return string(kind) + ":" + params.Encode()
}

func listParams(filter content.ListFilter) url.Values {
	params := url.Values{}
	if filter.Category != "" {
		params.Set("category", string(filter.Category))
	}
	if filter.Type != "" {
		params.Set("type", string(filter.Type))
	}
	if filter.Featured {
		params.Set("featured", "true")
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	return params
}

func (c *Cache) Articles(ctx context.Context, filter content.ListFilter) Result[[]content.Article] {
	return load(ctx, c, KindList, Key(KindList, listParams(filter)), c.ttls.List, true,
		func(ctx context.Context) ([]content.Article, error) {
			return c.reader.ListArticles(ctx, filter)
		})
}

// Article looks up one article. Absent slugs are not cached so a new article shows up at once.
func (c *Cache) Article(ctx context.Context, slug string) Result[*content.Article] {
	return load(ctx, c, KindArticle, Key(KindArticle, url.Values{"slug": {slug}}), c.ttls.Article, false,
		func(ctx context.Context) (*content.Article, error) {
			return c.reader.GetArticle(ctx, slug)
		})
}

func (c *Cache) Slugs(ctx context.Context) Result[[]content.SlugEntry] {
	return load(ctx, c, KindSlugs, Key(KindSlugs, nil), c.ttls.Slugs, true,
		func(ctx context.Context) ([]content.SlugEntry, error) {
			return c.reader.ListSlugs(ctx)
		})
}

func (c *Cache) Schedules(ctx context.Context, class string) Result[[]content.ExamSchedule] {
	return load(ctx, c, KindSchedule, Key(KindSchedule, url.Values{"class": {class}}), c.ttls.Schedule, true,
		func(ctx context.Context) ([]content.ExamSchedule, error) {
			return c.reader.ListSchedules(ctx, class)
		})
}

func (c *Cache) Settings(ctx context.Context) Result[*content.SiteSettings] {
	return load(ctx, c, KindSettings, Key(KindSettings, nil), c.ttls.Settings, true,
		func(ctx context.Context) (*content.SiteSettings, error) {
			return c.reader.GetSettings(ctx)
		})
}

func load[T any](ctx context.Context, c *Cache, kind Kind, key string, ttl time.Duration, cacheEmpty bool, fetch func(context.Context) (T, error)) Result[T] {
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		slog.Warn("Cache backend read failed", "key", key, "error", err)
	}
	if ok {
		var data T
		if err := json.Unmarshal(raw, &data); err == nil {
			metrics.CacheRequests.WithLabelValues(string(kind), "hit").Inc()
			return Result[T]{Data: data}
		}
		slog.Warn("Discarding undecodable cache entry", "key", key)
	}

	// The shared fetch outlives any single caller; each caller stops waiting on its own context.
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		data, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		encoded, err := json.Marshal(data)
		if err != nil {
			return data, nil
		}
		if cacheEmpty || string(encoded) != "null" {
			if err := c.backend.Set(fetchCtx, key, encoded, ttl); err != nil {
				slog.Warn("Cache backend write failed", "key", key, "error", err)
			}
		}
		return data, nil
	})

	var value any
	select {
	case res := <-ch:
		value, err = res.Val, res.Err
	case <-ctx.Done():
		slog.Debug("Read query abandoned by caller", "kind", kind, "key", key, "error", ctx.Err())
		return Result[T]{Err: fmt.Errorf("%w: %v", content.ErrStoreUnavailable, ctx.Err())}
	}
	if err != nil {
		metrics.CacheRequests.WithLabelValues(string(kind), "error").Inc()
		slog.Error("Read query failed", "kind", kind, "key", key, "error", err)
		return Result[T]{Err: fmt.Errorf("%w: %v", content.ErrStoreUnavailable, err)}
	}

	metrics.CacheRequests.WithLabelValues(string(kind), "miss").Inc()
	return Result[T]{Data: value.(T)}
}
