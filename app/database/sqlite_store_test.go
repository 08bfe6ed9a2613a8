package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/boardswallah/boards-press/app/content"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "boards.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testArticle(slug string, published time.Time) content.Article {
	return content.Article{
		Slug:        slug,
		Title:       "Title for " + slug,
		Excerpt:     "Excerpt",
		Content:     "<p>Body</p>",
		Tags:        []string{"Class 10", "Science"},
		Category:    content.CategoryClass10,
		Type:        content.TypeQuestionPaper,
		Subject:     "Science",
		Author:      content.DefaultAuthor,
		PublishDate: published,
		Featured:    true,
	}
}

func TestSQLiteStoreUpsertIsIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }

	created, err := store.UpsertArticle(ctx, testArticle("science-paper", first))
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected generated ID")
	}
	if created.Views != 0 {
		t.Errorf("Expected 0 views, got %d", created.Views)
	}

	if _, err := store.db.Exec("UPDATE articles SET views = 42 WHERE slug = ?", "science-paper"); err != nil {
		t.Fatalf("Failed to bump views: %v", err)
	}

	second := first.Add(2 * time.Hour)
	store.now = func() time.Time { return second }

	updated := testArticle("science-paper", second)
	updated.Title = "Revised title"
	saved, err := store.UpsertArticle(ctx, updated)
	if err != nil {
		t.Fatalf("Failed to overwrite article: %v", err)
	}

	if saved.ID != created.ID {
		t.Errorf("Expected ID %s to survive overwrite, got %s", created.ID, saved.ID)
	}
	if saved.Views != 42 {
		t.Errorf("Expected views 42 to survive overwrite, got %d", saved.Views)
	}
	if !saved.CreatedAt.Equal(first) {
		t.Errorf("Expected created_at %v, got %v", first, saved.CreatedAt)
	}

	count, err := store.CountArticles(ctx)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 article, got %d", count)
	}

	got, err := store.GetArticle(ctx, "science-paper")
	if err != nil {
		t.Fatalf("Failed to get article: %v", err)
	}
	if got == nil {
		t.Fatal("Expected article, got nil")
	}
	if got.Title != "Revised title" {
		t.Errorf("Expected revised title, got %q", got.Title)
	}
	if !got.PublishDate.Equal(second) {
		t.Errorf("Expected publish date %v, got %v", second, got.PublishDate)
	}
	if !got.UpdatedAt.Equal(second) {
		t.Errorf("Expected updated_at %v, got %v", second, got.UpdatedAt)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "Science" {
		t.Errorf("Expected tags to round-trip, got %v", got.Tags)
	}
	if got.Author != content.DefaultAuthor {
		t.Errorf("Expected author %q, got %q", content.DefaultAuthor, got.Author)
	}
	if got.PDFURL != "" {
		t.Errorf("Expected empty PDF URL, got %q", got.PDFURL)
	}
}

func TestSQLiteStoreGetMissingArticle(t *testing.T) {
	store := newTestSQLiteStore(t)

	got, err := store.GetArticle(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil article, got %+v", got)
	}
}

func TestSQLiteStoreListArticles(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	older := testArticle("older", base)
	newer := testArticle("newer", base.Add(24*time.Hour))
	twelfth := testArticle("twelfth", base.Add(48*time.Hour))
	twelfth.Category = content.CategoryClass12
	twelfth.Featured = false

	for _, a := range []content.Article{older, newer, twelfth} {
		if _, err := store.UpsertArticle(ctx, a); err != nil {
			t.Fatalf("Failed to insert %s: %v", a.Slug, err)
		}
	}

	all, err := store.ListArticles(ctx, content.ListFilter{})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(all))
	}
	if all[0].Slug != "twelfth" || all[2].Slug != "older" {
		t.Errorf("Expected newest first, got %s..%s", all[0].Slug, all[2].Slug)
	}

	class10, err := store.ListArticles(ctx, content.ListFilter{Category: content.CategoryClass10, Limit: 1})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(class10) != 1 || class10[0].Slug != "newer" {
		t.Errorf("Expected only 'newer', got %v", class10)
	}

	featured, err := store.ListArticles(ctx, content.ListFilter{Featured: true})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(featured) != 2 {
		t.Errorf("Expected 2 featured articles, got %d", len(featured))
	}

	slugs, err := store.ListSlugs(ctx)
	if err != nil {
		t.Fatalf("Failed to list slugs: %v", err)
	}
	if len(slugs) != 3 || slugs[0].Slug != "twelfth" || slugs[0].Featured {
		t.Errorf("Unexpected slug entries: %+v", slugs)
	}
}

func TestSQLiteStoreDeleteArticle(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.UpsertArticle(ctx, testArticle("gone", time.Now())); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	existed, err := store.DeleteArticle(ctx, "gone")
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if !existed {
		t.Error("Expected first delete to report an existing row")
	}

	existed, err = store.DeleteArticle(ctx, "gone")
	if err != nil {
		t.Fatalf("Expected repeated delete to succeed, got %v", err)
	}
	if existed {
		t.Error("Expected repeated delete to report no row")
	}
}

func TestSQLiteStoreSchedulesAndSettings(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, s := range []content.ExamSchedule{
		{Class: "10", ExamDate: "2026-03-05", Subject: "Mathematics", Time: "10:30 AM"},
		{Class: "10", ExamDate: "2026-02-20", Subject: "English", Time: "10:30 AM"},
		{Class: "12", ExamDate: "2026-02-21", Subject: "Physics", Time: "10:30 AM"},
		{Class: "10", ExamDate: "2026-03-05", Subject: "Mathematics Standard", Time: "10:30 AM"},
	} {
		if _, err := store.UpsertSchedule(ctx, s); err != nil {
			t.Fatalf("Failed to upsert schedule: %v", err)
		}
	}

	schedules, err := store.ListSchedules(ctx, "10")
	if err != nil {
		t.Fatalf("Failed to list schedules: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("Expected 2 class 10 schedules, got %d", len(schedules))
	}
	if schedules[0].Subject != "English" || schedules[1].Subject != "Mathematics Standard" {
		t.Errorf("Unexpected schedule order or content: %+v", schedules)
	}

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("Failed to get settings: %v", err)
	}
	if settings == nil || settings.SiteTitle != "BoardsWallah" {
		t.Fatalf("Expected seeded settings, got %+v", settings)
	}

	settings.TopNotificationText = "Results are out"
	if _, err := store.SaveSettings(ctx, *settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	reloaded, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("Failed to reload settings: %v", err)
	}
	if reloaded.TopNotificationText != "Results are out" {
		t.Errorf("Expected notification text to persist, got %q", reloaded.TopNotificationText)
	}
}

func TestOpenSQLiteRerunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boards.sqlite")

	first, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	if _, err := first.UpsertArticle(context.Background(), testArticle("kept", time.Now())); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	first.Close()

	second, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer second.Close()

	count, err := second.CountArticles(context.Background())
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected data to survive reopen, got %d articles", count)
	}
}
