package generation

import (
	"strings"

	"github.com/boardswallah/boards-press/app/content"
)

const statementColumns = "id, slug, title, category, subject, publish_date, author, excerpt, content, tags, type, pdf_url, pdf_size, featured, views, created_at, updated_at"

const statementConflict = `ON CONFLICT (slug) DO UPDATE SET
  title = EXCLUDED.title,
  excerpt = EXCLUDED.excerpt,
  content = EXCLUDED.content,
  tags = EXCLUDED.tags,
  category = EXCLUDED.category,
  subject = EXCLUDED.subject,
  type = EXCLUDED.type,
  updated_at = NOW(),
  publish_date = NOW(),
  featured = true;`

// RenderStatements renders each article as a standalone PostgreSQL upsert for manual use.
func RenderStatements(articles []content.Article) string {
	var b strings.Builder
	for i, a := range articles {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("-- ")
		b.WriteString(string(a.Type))
		b.WriteString("\nINSERT INTO articles (")
		b.WriteString(statementColumns)
		b.WriteString(")\nVALUES (gen_random_uuid(), ")
		b.WriteString(strings.Join([]string{
			quoteLiteral(a.Slug),
			quoteLiteral(a.Title),
			quoteLiteral(string(a.Category)),
			quoteLiteral(a.Subject),
			"NOW()",
			quoteLiteral(a.Author),
			quoteLiteral(a.Excerpt),
			quoteLiteral(a.Content),
			tagArray(a.Tags),
			quoteLiteral(string(a.Type)),
			nullableLiteral(a.PDFURL),
			nullableLiteral(a.PDFSize),
			"true",
			"0",
			"NOW()",
			"NOW()",
		}, ", "))
		b.WriteString(")\n")
		b.WriteString(statementConflict)
	}
	return b.String()
}

// quoteLiteral doubles embedded single quotes so the value cannot terminate the literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func nullableLiteral(s string) string {
	if s == "" {
		return "NULL"
	}
	return quoteLiteral(s)
}

func tagArray(tags []string) string {
	if len(tags) == 0 {
		return "ARRAY[]::TEXT[]"
	}
	quoted := make([]string, len(tags))
	for i, tag := range tags {
		quoted[i] = quoteLiteral(tag)
	}
	return "ARRAY[" + strings.Join(quoted, ", ") + "]"
}
