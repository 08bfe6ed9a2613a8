package content

import (
	"errors"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"CBSE Class 12 Chemistry Answer Key 2026", "cbse-class-12-chemistry-answer-key-2026"},
		{"  Maths: Set 1 / Set 2  ", "maths-set-1-set-2"},
		{"Café Économie", "cafe-economie"},
		{"already-a-slug", "already-a-slug"},
		{"multiple   spaces -- and dashes", "multiple-spaces-and-dashes"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Expected slug '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		expected Type
		wantErr  bool
	}{
		{"Answer Key", TypeAnswerKey, false},
		{"answer-key", TypeAnswerKey, false},
		{"important-questions", TypeImportantQuestions, false},
		{"Paper Analysis", TypeAnalysis, false},
		{"syllabus", TypeSyllabus, false},
		{"horoscope", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("Expected type '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestCategoryForClass(t *testing.T) {
	if CategoryForClass("10") != CategoryClass10 {
		t.Errorf("Expected Class 10 category")
	}
	if CategoryForClass(" 12 ") != CategoryClass12 {
		t.Errorf("Expected Class 12 category")
	}
	if CategoryForClass("11") != CategoryGeneral {
		t.Errorf("Expected General category for unknown class")
	}
}

func TestPlainTextAndExcerpt(t *testing.T) {
	html := `<div class="alert"><p>The exam is <strong>over</strong>.</p><script>var x = 1;</script><p>Answers below.</p></div>`

	if got := PlainText(html); got != "The exam is over.Answers below." && got != "The exam is over. Answers below." {
		t.Errorf("Unexpected plain text: '%s'", got)
	}

	long := "<p>" + strings.Repeat("word ", 100) + "</p>"
	excerpt := Excerpt(long, 40)
	if len([]rune(excerpt)) > 41 {
		t.Errorf("Expected excerpt of at most 41 runes, got %d", len([]rune(excerpt)))
	}
	if !strings.HasSuffix(excerpt, "…") {
		t.Errorf("Expected truncated excerpt to end with ellipsis, got '%s'", excerpt)
	}

	if got := Excerpt("<p>short</p>", 40); got != "short" {
		t.Errorf("Expected 'short', got '%s'", got)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" CBSE ", "cbse", "", "Class 12", "Answer Key", "class 12"})
	expected := []string{"CBSE", "Class 12", "Answer Key"}

	if len(got) != len(expected) {
		t.Fatalf("Expected %d tags, got %d: %v", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Expected tag %d to be '%s', got '%s'", i, expected[i], got[i])
		}
	}
}

func TestPreviewKeepsRunesIntact(t *testing.T) {
	s := strings.Repeat("é", 300) // 600 bytes
	p := Preview(s, 501)
	if len(p) != 500 {
		t.Errorf("Expected preview cut back to 500 bytes, got %d", len(p))
	}
	if Preview("abc", 500) != "abc" {
		t.Error("Expected short input to be returned unchanged")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection refused")
	var err error = &PublishFailure{Slug: "a", Reason: "store error", Err: cause}

	var pf *PublishFailure
	if !errors.As(err, &pf) {
		t.Fatal("Expected errors.As to match PublishFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected PublishFailure to unwrap to its cause")
	}

	parseErr := NewGenerationParseError(strings.Repeat("x", 2000), nil)
	if len(parseErr.Raw) != 500 {
		t.Errorf("Expected raw preview of 500 bytes, got %d", len(parseErr.Raw))
	}
}
