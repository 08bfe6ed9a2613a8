package generation

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/boardswallah/boards-press/app/content"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

type promptData struct {
	Subject           string
	ClassNumber       string
	Category          content.Category
	ExamDate          string
	ExamDateLong      string
	ExamCode          string
	AdditionalContext string
	RequestedTypes    string
	AllTypes          string
	TargetWords       int
	Year              string
	Author            string
	Source            string
}

func newPromptData(req *resolved, targetWords int, source string) promptData {
	labels := make([]string, len(req.Types))
	for i, t := range req.Types {
		labels[i] = string(t)
	}
	all := make([]string, len(content.Types))
	for i, t := range content.Types {
		all[i] = "'" + string(t) + "'"
	}

	return promptData{
		Subject:           req.Subject,
		ClassNumber:       req.ClassNumber,
		Category:          req.Category,
		ExamDate:          req.ExamDate.Format(examDateLayout),
		ExamDateLong:      req.ExamDate.Format("2 January 2006"),
		ExamCode:          req.ExamCode,
		AdditionalContext: req.AdditionalContext,
		RequestedTypes:    strings.Join(labels, ", "),
		AllTypes:          strings.Join(all, ", "),
		TargetWords:       targetWords,
		Year:              strconv.Itoa(req.ExamDate.Year()),
		Author:            content.DefaultAuthor,
		Source:            source,
	}
}

// buildPrompts renders the system and user prompts for a mode.
func buildPrompts(mode Mode, data promptData) (string, string, error) {
	systemName := "system_structured.tmpl"
	if mode == ModeStatements {
		systemName = "system_statements.tmpl"
	}

	var system, user bytes.Buffer
	if err := prompts.ExecuteTemplate(&system, systemName, data); err != nil {
		return "", "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	if err := prompts.ExecuteTemplate(&user, "user.tmpl", data); err != nil {
		return "", "", fmt.Errorf("failed to render user prompt: %w", err)
	}

	return system.String(), user.String(), nil
}
