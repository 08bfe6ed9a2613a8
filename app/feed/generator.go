package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/boardswallah/boards-press/app/cfg"
	"github.com/boardswallah/boards-press/app/content"
)

const (
	DefaultSiteTitle = "BoardsWallah"
	siteDescription  = "CBSE board exam question papers, answer keys, analysis and study material"
	FeedArticleLimit = 50
	siteLanguage     = "en-IN"
)

// SiteURL is the public base URL, falling back to the local listener.
func SiteURL() string {
	if base := strings.TrimRight(cfg.Get().BaseUrl, "/"); base != "" {
		return base
	}
	return fmt.Sprintf("http://localhost:%s", cfg.Get().Port)
}

// ArticleURL is the canonical page of an article.
func ArticleURL(slug string) string {
	return fmt.Sprintf("%s/article/%s/", SiteURL(), slug)
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders the newest articles as an RSS 2.0 channel. settings may be nil.
func (g *Generator) Run(settings *content.SiteSettings, articles []content.Article) (string, error) {
	var buf bytes.Buffer

	title := DefaultSiteTitle
	if settings != nil && settings.SiteTitle != "" {
		title = settings.SiteTitle
	}
	site := SiteURL()

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", title, 4)
	g.writeElement(&buf, "link", site+"/", 4)
	g.writeElement(&buf, "description", siteDescription, 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(site+"/feed.xml")))

	lastBuildDate := time.Now().In(time.Local)
	if len(articles) > 0 {
		lastBuildDate = cmp.Or(articles[0].UpdatedAt, articles[0].PublishDate, lastBuildDate)
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("BoardsPress/%s", cfg.Get().Version), 4)
	g.writeElement(&buf, "language", siteLanguage, 4)

	for i, article := range articles {
		if i == FeedArticleLimit {
			break
		}
		g.writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, article content.Article) {
	link := ArticleURL(article.Slug)

	buf.WriteString("    <item>\n")
	buf.WriteString("      <guid isPermaLink=\"true\">")
	xml.EscapeText(buf, []byte(link))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", article.Title, 6)
	g.writeElement(buf, "link", link, 6)
	g.writeElement(buf, "description", cmp.Or(article.Excerpt, content.Excerpt(article.Content, 160)), 6)

	if article.Content != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		// A literal "]]>" would close the section early.
		buf.WriteString(strings.ReplaceAll(article.Content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", article.PublishDate.Format(time.RFC1123Z), 6)
	g.writeElement(buf, "dc:creator", cmp.Or(article.Author, content.DefaultAuthor), 6)

	g.writeElement(buf, "category", string(article.Category), 6)
	g.writeElement(buf, "category", string(article.Type), 6)
	for _, tag := range article.Tags {
		g.writeElement(buf, "category", tag, 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, text string, indent int) {
	if text == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(text))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
