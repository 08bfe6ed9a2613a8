package content

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces  = regexp.MustCompile(`[\s-]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Slugify lowercases, folds diacritics, drops anything outside [a-z0-9 -]
// and joins words with single hyphens.
func Slugify(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}

	slug := strings.ToLower(folded)
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(strings.TrimSpace(slug), "-")
	return strings.Trim(slug, "-")
}

// PlainText renders the visible text of an HTML fragment with collapsed whitespace.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(whitespace.ReplaceAllString(html, " "))
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(whitespace.ReplaceAllString(doc.Text(), " "))
}

// Excerpt returns up to limit characters of the fragment's text, cut on a word boundary.
func Excerpt(html string, limit int) string {
	text := []rune(PlainText(html))
	if len(text) <= limit {
		return string(text)
	}
	cut := limit
	for cut > 0 && !unicode.IsSpace(text[cut]) {
		cut--
	}
	if cut == 0 {
		cut = limit
	}
	return strings.TrimSpace(string(text[:cut])) + "…"
}

// NormalizeTags trims, drops empties and removes case-insensitive duplicates,
// keeping the first spelling and the original order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}
