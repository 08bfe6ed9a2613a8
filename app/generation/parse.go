package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/boardswallah/boards-press/app/content"
)

var (
	errNoArray = errors.New("no JSON array delimiters found")
	fenceLine  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
)

// candidate is one article object as the model returns it.
type candidate struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
	Type     string   `json:"type"`
	Subject  string   `json:"subject"`
	Author   string   `json:"author"`
	PDFURL   string   `json:"pdf_url"`
	PDFSize  string   `json:"pdf_size"`
}

// stripFences drops markdown code fence lines, keeping their contents.
func stripFences(raw string) string {
	return strings.TrimSpace(fenceLine.ReplaceAllString(raw, ""))
}

// parseCandidates isolates the outermost JSON array in raw model output and decodes it.
func parseCandidates(raw string) ([]candidate, error) {
	text := stripFences(raw)

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, content.NewGenerationParseError(raw, errNoArray)
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil, content.NewGenerationParseError(raw, err)
	}

	if len(items) == 0 {
		return nil, &content.GenerationShapeError{Reason: "empty article list"}
	}

	candidates := make([]candidate, 0, len(items))
	for i, item := range items {
		var c candidate
		if err := json.Unmarshal(item, &c); err != nil {
			return nil, &content.GenerationShapeError{Reason: fmt.Sprintf("item %d is not an article object", i)}
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}
