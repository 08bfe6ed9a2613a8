package database

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/boardswallah/boards-press/app/content"
)

var articleColumns = []string{
	"id", "slug", "title", "excerpt", "content", "tags", "category", "type", "subject",
	"COALESCE(author, '')", "COALESCE(pdf_url, '')", "COALESCE(pdf_size, '')",
	"publish_date", "featured", "views", "created_at", "updated_at",
}

var insertColumns = []string{
	"id", "slug", "title", "excerpt", "content", "tags", "category", "type", "subject",
	"author", "pdf_url", "pdf_size", "publish_date", "featured", "views", "created_at", "updated_at",
}

// Views and created_at survive an overwrite.
const upsertArticleSuffix = `ON CONFLICT (slug) DO UPDATE SET
	title = excluded.title,
	excerpt = excluded.excerpt,
	content = excluded.content,
	tags = excluded.tags,
	category = excluded.category,
	type = excluded.type,
	subject = excluded.subject,
	author = excluded.author,
	pdf_url = excluded.pdf_url,
	pdf_size = excluded.pdf_size,
	publish_date = excluded.publish_date,
	featured = excluded.featured,
	updated_at = excluded.updated_at
RETURNING id, views, created_at`

const upsertScheduleSuffix = `ON CONFLICT (class, exam_date) DO UPDATE SET
	subject = excluded.subject,
	time = excluded.time
RETURNING id`

var settingsColumns = []string{
	"site_title", "primary_color", "secondary_color", "font_family",
	"top_notification_text", "top_notification_link", "updated_at",
}

const upsertSettingsSuffix = `ON CONFLICT (id) DO UPDATE SET
	site_title = excluded.site_title,
	primary_color = excluded.primary_color,
	secondary_color = excluded.secondary_color,
	font_family = excluded.font_family,
	top_notification_text = excluded.top_notification_text,
	top_notification_link = excluded.top_notification_link,
	updated_at = excluded.updated_at`

// listArticlesQuery applies a list filter; newest first.
func listArticlesQuery(builder sq.StatementBuilderType, filter content.ListFilter, featuredValue any) sq.SelectBuilder {
	query := builder.Select(articleColumns...).From("articles").OrderBy("publish_date DESC")

	if filter.Category != "" {
		query = query.Where(sq.Eq{"category": string(filter.Category)})
	}
	if filter.Type != "" {
		query = query.Where(sq.Eq{"type": string(filter.Type)})
	}
	if filter.Featured {
		query = query.Where(sq.Eq{"featured": featuredValue})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	return query
}

// nullable maps empty optional strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
