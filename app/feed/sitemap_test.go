package feed

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/boardswallah/boards-press/app/content"
)

func TestSitemap(t *testing.T) {
	setupTestConfig(t, "https://boardswallah.com")
	builder := NewSitemapBuilder()

	published := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	entries := []content.SlugEntry{
		{Slug: "featured-one", PublishDate: published, UpdatedAt: published.AddDate(0, 0, 3), Featured: true},
		{Slug: "plain-one", PublishDate: published},
	}

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out, err := builder.Run(entries, now)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.HasPrefix(string(out), xml.Header) {
		t.Error("Sitemap should start with XML header")
	}

	var set urlSet
	if err := xml.Unmarshal(out, &set); err != nil {
		t.Fatalf("Sitemap should parse, got: %v", err)
	}

	if len(set.URLs) != len(staticRoutes)+2 {
		t.Fatalf("Expected %d urls, got %d", len(staticRoutes)+2, len(set.URLs))
	}

	home := set.URLs[0]
	if home.Loc != "https://boardswallah.com/" || home.Priority != "1.0" || home.ChangeFreq != "hourly" {
		t.Errorf("Unexpected home entry: %+v", home)
	}
	if home.LastMod != "2025-03-01" {
		t.Errorf("Expected static lastmod 2025-03-01, got %s", home.LastMod)
	}

	featured := set.URLs[len(staticRoutes)]
	if featured.Loc != "https://boardswallah.com/article/featured-one/" {
		t.Errorf("Unexpected article loc: %s", featured.Loc)
	}
	if featured.Priority != "0.95" {
		t.Errorf("Expected featured priority 0.95, got %s", featured.Priority)
	}
	if featured.LastMod != "2025-02-04" {
		t.Errorf("Expected lastmod from update time, got %s", featured.LastMod)
	}

	plain := set.URLs[len(staticRoutes)+1]
	if plain.Priority != "0.85" {
		t.Errorf("Expected priority 0.85, got %s", plain.Priority)
	}
	if plain.LastMod != "2025-02-01" {
		t.Errorf("Expected lastmod from publish date, got %s", plain.LastMod)
	}
}
