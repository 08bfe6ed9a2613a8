package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/boardswallah/boards-press/app/content"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type staticRoute struct {
	path       string
	changeFreq string
	priority   string
}

var staticRoutes = []staticRoute{
	{"/", "hourly", "1.0"},
	{"/category/class-10/", "daily", "0.9"},
	{"/category/class-12/", "daily", "0.9"},
	{"/archive/", "weekly", "0.7"},
	{"/about/", "monthly", "0.4"},
	{"/contact/", "monthly", "0.3"},
	{"/privacy/", "monthly", "0.2"},
}

type SitemapBuilder struct{}

func NewSitemapBuilder() *SitemapBuilder {
	return &SitemapBuilder{}
}

// Run lists the static pages followed by every article. now dates the static pages.
func (b *SitemapBuilder) Run(entries []content.SlugEntry, now time.Time) ([]byte, error) {
	site := SiteURL()
	set := urlSet{Xmlns: sitemapNamespace, URLs: make([]sitemapURL, 0, len(staticRoutes)+len(entries))}

	today := now.Format("2006-01-02")
	for _, route := range staticRoutes {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        site + route.path,
			LastMod:    today,
			ChangeFreq: route.changeFreq,
			Priority:   route.priority,
		})
	}

	for _, entry := range entries {
		priority := "0.85"
		if entry.Featured {
			priority = "0.95"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        ArticleURL(entry.Slug),
			LastMod:    entry.LastModified().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(set); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}

	return buf.Bytes(), nil
}
