package generation

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/boardswallah/boards-press/app/content"
)

const excerptLength = 160

// newContentPolicy allows user-generated markup plus the class attribute the site styles rely on.
func newContentPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()
	return policy
}

// normalize turns raw candidates into article records ready for publishing.
// Unusable items are skipped and described in the returned warnings.
func normalize(candidates []candidate, req *resolved, policy *bluemonday.Policy) ([]content.Article, []string) {
	articles := make([]content.Article, 0, len(candidates))
	seen := make(map[string]bool)
	var warnings []string

	for i, c := range candidates {
		title := strings.TrimSpace(c.Title)
		slug := content.Slugify(c.Slug)
		if slug == "" {
			slug = content.Slugify(title)
		}
		if slug == "" || title == "" {
			warnings = append(warnings, fmt.Sprintf("item %d skipped: missing title", i))
			continue
		}
		if seen[slug] {
			warnings = append(warnings, fmt.Sprintf("item %d skipped: duplicate slug %s", i, slug))
			continue
		}

		articleType, err := content.ParseType(c.Type)
		if err != nil {
			if i >= len(req.Types) {
				warnings = append(warnings, fmt.Sprintf("item %d skipped: %v", i, err))
				continue
			}
			articleType = req.Types[i]
		}

		category := content.Category(strings.TrimSpace(c.Category))
		if !category.Valid() {
			category = req.Category
		}

		subject := strings.TrimSpace(c.Subject)
		if subject == "" {
			subject = req.Subject
		}

		body := strings.TrimSpace(policy.Sanitize(c.Content))

		excerpt := strings.TrimSpace(content.PlainText(c.Excerpt))
		if excerpt == "" {
			excerpt = content.Excerpt(body, excerptLength)
		}

		author := strings.TrimSpace(c.Author)
		if author == "" {
			author = content.DefaultAuthor
		}

		seen[slug] = true
		articles = append(articles, content.Article{
			Slug:     slug,
			Title:    title,
			Excerpt:  excerpt,
			Content:  body,
			Tags:     content.NormalizeTags(c.Tags),
			Category: category,
			Type:     articleType,
			Subject:  subject,
			Author:   author,
			PDFURL:   strings.TrimSpace(c.PDFURL),
			PDFSize:  strings.TrimSpace(c.PDFSize),
		})
	}

	return articles, warnings
}
