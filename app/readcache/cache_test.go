package readcache

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boardswallah/boards-press/app/content"
	"github.com/boardswallah/boards-press/app/database"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, reader Reader) (*Cache, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	backend, err := NewMemoryBackend(128, clock.Now)
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	return New(reader, backend, DefaultTTLs()), clock
}

func article(slug string, category content.Category, published time.Time) content.Article {
	return content.Article{
		Slug:        slug,
		Title:       slug,
		Category:    category,
		Type:        content.TypeQuestionPaper,
		PublishDate: published,
	}
}

func TestKeyIsOrderIndependent(t *testing.T) {
	a := url.Values{}
	a.Set("limit", "5")
	a.Set("category", "Class 12")

	b := url.Values{}
	b.Set("category", "Class 12")
	b.Set("limit", "5")

	if Key(KindList, a) != Key(KindList, b) {
		t.Errorf("Expected equal keys, got %q and %q", Key(KindList, a), Key(KindList, b))
	}
	if Key(KindList, a) == Key(KindArticle, a) {
		t.Error("Expected kind to be part of the key")
	}
}

func TestCacheKeyIndependence(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	store.UpsertArticle(ctx, article("ten", content.CategoryClass10, now))
	store.UpsertArticle(ctx, article("twelve", content.CategoryClass12, now))

	cache, _ := newTestCache(t, store)

	class10 := cache.Articles(ctx, content.ListFilter{Category: content.CategoryClass10})
	class12 := cache.Articles(ctx, content.ListFilter{Category: content.CategoryClass12, Limit: 5})

	if class10.Err != nil || class12.Err != nil {
		t.Fatalf("Unexpected errors: %v, %v", class10.Err, class12.Err)
	}
	if len(class10.Data) != 1 || class10.Data[0].Slug != "ten" {
		t.Errorf("Expected class 10 result, got %+v", class10.Data)
	}
	if len(class12.Data) != 1 || class12.Data[0].Slug != "twelve" {
		t.Errorf("Expected class 12 result, got %+v", class12.Data)
	}

	again := cache.Articles(ctx, content.ListFilter{Category: content.CategoryClass10})
	if len(again.Data) != 1 || again.Data[0].Slug != "ten" {
		t.Errorf("Expected cached class 10 result, got %+v", again.Data)
	}
}

func TestCacheTTLStalenessBound(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	cache, clock := newTestCache(t, store)

	first := cache.Articles(ctx, content.ListFilter{})
	if first.Err != nil || len(first.Data) != 0 {
		t.Fatalf("Expected empty list, got %+v (%v)", first.Data, first.Err)
	}

	store.UpsertArticle(ctx, article("fresh", content.CategoryClass10, clock.Now()))

	clock.Advance(30 * time.Second)
	if stale := cache.Articles(ctx, content.ListFilter{}); len(stale.Data) != 0 {
		t.Errorf("Expected cached empty list inside the TTL, got %d articles", len(stale.Data))
	}

	clock.Advance(31 * time.Second)
	visible := cache.Articles(ctx, content.ListFilter{})
	if len(visible.Data) != 1 || visible.Data[0].Slug != "fresh" {
		t.Errorf("Expected article visible at T+61s, got %+v", visible.Data)
	}
}

func TestCacheArticleTTLAndAbsence(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	cache, clock := newTestCache(t, store)

	if missing := cache.Article(ctx, "later"); missing.Err != nil || missing.Data != nil {
		t.Fatalf("Expected (nil, nil), got (%+v, %v)", missing.Data, missing.Err)
	}

	store.UpsertArticle(ctx, article("later", content.CategoryGeneral, clock.Now()))
	found := cache.Article(ctx, "later")
	if found.Data == nil {
		t.Fatal("Expected absent slug not to be cached")
	}

	updated := article("later", content.CategoryGeneral, clock.Now())
	updated.Title = "Updated"
	store.UpsertArticle(ctx, updated)

	clock.Advance(299 * time.Second)
	if got := cache.Article(ctx, "later"); got.Data.Title != "later" {
		t.Errorf("Expected cached title inside the TTL, got %q", got.Data.Title)
	}

	clock.Advance(2 * time.Second)
	if got := cache.Article(ctx, "later"); got.Data.Title != "Updated" {
		t.Errorf("Expected refreshed title after the TTL, got %q", got.Data.Title)
	}
}

type failingReader struct {
	*database.MemoryStore
	fail  atomic.Bool
	calls atomic.Int32
}

func (r *failingReader) ListSchedules(ctx context.Context, class string) ([]content.ExamSchedule, error) {
	r.calls.Add(1)
	if r.fail.Load() {
		return nil, errors.New("dial tcp: connection refused")
	}
	return []content.ExamSchedule{{Class: class, ExamDate: "2026-03-02", Subject: "Maths"}}, nil
}

func TestCacheReturnsErrorMarker(t *testing.T) {
	reader := &failingReader{MemoryStore: database.NewMemoryStore()}
	reader.fail.Store(true)
	cache, _ := newTestCache(t, reader)
	ctx := context.Background()

	result := cache.Schedules(ctx, "10")
	if !errors.Is(result.Err, content.ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable marker, got %v", result.Err)
	}
	if result.Data != nil {
		t.Errorf("Expected nil data, got %+v", result.Data)
	}

	reader.fail.Store(false)
	result = cache.Schedules(ctx, "10")
	if result.Err != nil || len(result.Data) != 1 {
		t.Errorf("Expected failure not to be cached, got (%+v, %v)", result.Data, result.Err)
	}

	cache.Schedules(ctx, "10")
	if reader.calls.Load() != 2 {
		t.Errorf("Expected 2 store calls, got %d", reader.calls.Load())
	}
}

type slowReader struct {
	*database.MemoryStore
	release chan struct{}
	calls   atomic.Int32
}

func (r *slowReader) ListSlugs(ctx context.Context) ([]content.SlugEntry, error) {
	r.calls.Add(1)
	<-r.release
	return []content.SlugEntry{{Slug: "only"}}, nil
}

func TestCacheCollapsesConcurrentMisses(t *testing.T) {
	reader := &slowReader{MemoryStore: database.NewMemoryStore(), release: make(chan struct{})}
	cache, _ := newTestCache(t, reader)

	var wg sync.WaitGroup
	results := make([]Result[[]content.SlugEntry], 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Slugs(context.Background())
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(reader.release)
	wg.Wait()

	if reader.calls.Load() != 1 {
		t.Errorf("Expected a single store call, got %d", reader.calls.Load())
	}
	for i, r := range results {
		if len(r.Data) != 1 {
			t.Errorf("Result %d: expected shared data, got %+v", i, r.Data)
		}
	}
}

// contextReader blocks until released or until the context it was given is done.
type contextReader struct {
	*database.MemoryStore
	release chan struct{}
	calls   atomic.Int32
}

func (r *contextReader) ListSlugs(ctx context.Context) ([]content.SlugEntry, error) {
	r.calls.Add(1)
	select {
	case <-r.release:
		return []content.SlugEntry{{Slug: "only"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCacheSharedFetchSurvivesCancelledCaller(t *testing.T) {
	reader := &contextReader{MemoryStore: database.NewMemoryStore(), release: make(chan struct{})}
	cache, _ := newTestCache(t, reader)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan Result[[]content.SlugEntry], 1)
	go func() { first <- cache.Slugs(firstCtx) }()

	for reader.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	second := make(chan Result[[]content.SlugEntry], 1)
	go func() { second <- cache.Slugs(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if got := <-first; !errors.Is(got.Err, content.ErrStoreUnavailable) {
		t.Errorf("Expected cancelled caller to get an error marker, got %+v", got)
	}

	close(reader.release)
	got := <-second
	if got.Err != nil {
		t.Fatalf("Expected second caller to be unaffected, got error: %v", got.Err)
	}
	if len(got.Data) != 1 || got.Data[0].Slug != "only" {
		t.Errorf("Expected shared data, got %+v", got.Data)
	}
	if reader.calls.Load() != 1 {
		t.Errorf("Expected a single store call, got %d", reader.calls.Load())
	}
}

func TestCacheSettings(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	cache, clock := newTestCache(t, store)

	store.SaveSettings(ctx, content.SiteSettings{SiteTitle: "Before"})
	if got := cache.Settings(ctx); got.Data == nil || got.Data.SiteTitle != "Before" {
		t.Fatalf("Expected settings, got %+v", got.Data)
	}

	store.SaveSettings(ctx, content.SiteSettings{SiteTitle: "After"})
	clock.Advance(59 * time.Minute)
	if got := cache.Settings(ctx); got.Data.SiteTitle != "Before" {
		t.Errorf("Expected cached settings inside an hour, got %q", got.Data.SiteTitle)
	}

	clock.Advance(2 * time.Minute)
	if got := cache.Settings(ctx); got.Data.SiteTitle != "After" {
		t.Errorf("Expected refreshed settings, got %q", got.Data.SiteTitle)
	}
}
