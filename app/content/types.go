package content

import (
	"fmt"
	"strings"
	"time"
)

const DefaultAuthor = "BoardsWallah Expert Team"

type Category string

const (
	CategoryClass10 Category = "Class 10"
	CategoryClass12 Category = "Class 12"
	CategoryGeneral Category = "General"
)

var Categories = []Category{CategoryClass10, CategoryClass12, CategoryGeneral}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryForClass maps a class number ("10", "12") to its category.
func CategoryForClass(classNumber string) Category {
	switch strings.TrimSpace(classNumber) {
	case "10":
		return CategoryClass10
	case "12":
		return CategoryClass12
	default:
		return CategoryGeneral
	}
}

type Type string

const (
	TypeQuestionPaper      Type = "Question Paper"
	TypeAnswerKey          Type = "Answer Key"
	TypeImportantQuestions Type = "Important Questions"
	TypeAnalysis           Type = "Analysis"
	TypeStudyMaterial      Type = "Study Material"
	TypeNews               Type = "News"
	TypeSyllabus           Type = "Syllabus"
)

var Types = []Type{
	TypeQuestionPaper,
	TypeAnswerKey,
	TypeImportantQuestions,
	TypeAnalysis,
	TypeStudyMaterial,
	TypeNews,
	TypeSyllabus,
}

func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Tag returns the kebab-case form used in URLs and admin forms ("answer-key").
func (t Type) Tag() string {
	return strings.ReplaceAll(strings.ToLower(string(t)), " ", "-")
}

// ParseType accepts either the display label or the kebab tag.
// "Paper Analysis" is accepted as an alias of Analysis.
func ParseType(value string) (Type, error) {
	v := strings.TrimSpace(value)
	for _, t := range Types {
		if strings.EqualFold(v, string(t)) || strings.EqualFold(v, t.Tag()) {
			return t, nil
		}
	}
	if strings.EqualFold(v, "Paper Analysis") {
		return TypeAnalysis, nil
	}
	return "", fmt.Errorf("unknown article type %q", value)
}

type Article struct {
	ID          string    `json:"id,omitempty"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	Category    Category  `json:"category"`
	Type        Type      `json:"type"`
	Subject     string    `json:"subject"`
	Author      string    `json:"author,omitempty"`
	PDFURL      string    `json:"pdf_url,omitempty"`
	PDFSize     string    `json:"pdf_size,omitempty"`
	PublishDate time.Time `json:"publish_date"`
	Featured    bool      `json:"featured"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// SlugEntry is the sitemap projection of an article.
type SlugEntry struct {
	Slug        string    `json:"slug"`
	PublishDate time.Time `json:"publish_date"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
	Featured    bool      `json:"featured"`
}

// LastModified prefers the update time and falls back to the publish date.
func (e SlugEntry) LastModified() time.Time {
	if !e.UpdatedAt.IsZero() {
		return e.UpdatedAt
	}
	return e.PublishDate
}

type ExamSchedule struct {
	ID       string `json:"id,omitempty"`
	Class    string `json:"class"`
	ExamDate string `json:"exam_date"` // YYYY-MM-DD
	Subject  string `json:"subject"`
	Time     string `json:"time"`
}

type SiteSettings struct {
	SiteTitle           string    `json:"site_title"`
	PrimaryColor        string    `json:"primary_color"`
	SecondaryColor      string    `json:"secondary_color"`
	FontFamily          string    `json:"font_family"`
	TopNotificationText string    `json:"top_notification_text"`
	TopNotificationLink string    `json:"top_notification_link"`
	UpdatedAt           time.Time `json:"updated_at,omitempty"`
}

// ListFilter describes a list query. Zero values mean "no constraint";
// Limit 0 returns every matching article.
type ListFilter struct {
	Category Category `json:"category,omitempty"`
	Type     Type     `json:"type,omitempty"`
	Featured bool     `json:"featured,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}
