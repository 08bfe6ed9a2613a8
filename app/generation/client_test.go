package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/boardswallah/boards-press/app/catalog"
	"github.com/boardswallah/boards-press/app/content"
)

type fakeProvider struct {
	reply     string
	err       error
	calls     int
	system    string
	user      string
	maxTokens int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	p.calls++
	p.system = system
	p.user = user
	p.maxTokens = maxTokens
	return p.reply, p.err
}

type blockingProvider struct{}

func (blockingProvider) Name() string { return "blocking" }

func (blockingProvider) Complete(ctx context.Context, _, _ string, _ int) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

const twoArticles = `[
  {"slug": "cbse-class-10-science-answer-key-2026", "title": "CBSE Class 10 Science Answer Key 2026",
   "excerpt": "Science answer key.", "content": "<div class=\"banner\">Key</div>",
   "tags": ["science answer key", "Science Answer Key", "cbse 2026"],
   "category": "Class 10", "type": "Answer Key", "subject": "Science"},
  {"title": "CBSE Class 10 Science Paper Analysis 2026",
   "content": "<p>Students' reactions were mixed.</p><script>alert(1)</script>",
   "tags": [], "type": "analysis"}
]`

func newTestClient(t *testing.T, provider Provider, opts ...Option) *Client {
	t.Helper()

	store := catalog.NewStore("")
	if err := store.Run(); err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}

	clock := func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }
	return NewClient(provider, store, append([]Option{WithClock(clock)}, opts...)...)
}

func validRequest() Request {
	return Request{
		Subject:        "Science",
		ClassNumber:    "10",
		RequestedTypes: []string{"answer-key", "Analysis"},
	}
}

func TestGenerateRejectsInvalidRequestBeforeCalling(t *testing.T) {
	provider := &fakeProvider{reply: twoArticles}
	client := newTestClient(t, provider)

	cases := []Request{
		{ClassNumber: "10", RequestedTypes: []string{"answer-key"}},
		{Subject: "Science", ClassNumber: "10"},
		{Subject: "Science", ClassNumber: "10", RequestedTypes: []string{}},
		{Subject: "Science", ClassNumber: "11", RequestedTypes: []string{"answer-key"}},
		{Subject: "Science", ClassNumber: "10", RequestedTypes: []string{"horoscope"}},
		{Subject: "Science", ClassNumber: "10", RequestedTypes: []string{"news"}, ExamDate: "02/03/2026"},
		{Subject: "Science", ClassNumber: "10", RequestedTypes: []string{"news"}, LengthTier: "huge"},
	}

	for i, req := range cases {
		_, err := client.Generate(context.Background(), req)
		var validationErr *content.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("Case %d: expected ValidationError, got %v", i, err)
		}
	}

	if provider.calls != 0 {
		t.Errorf("Expected no provider calls, got %d", provider.calls)
	}
}

func TestGenerateBuildsPrompt(t *testing.T) {
	provider := &fakeProvider{reply: twoArticles}
	client := newTestClient(t, provider)

	req := validRequest()
	req.ExamCode = "086"
	req.LengthTier = "large"
	if _, err := client.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if provider.maxTokens != 12000 {
		t.Errorf("Expected large tier max tokens 12000, got %d", provider.maxTokens)
	}
	if !strings.Contains(provider.user, "Subject Code: 086") {
		t.Errorf("Expected exam code in prompt, got:\n%s", provider.user)
	}
	if !strings.Contains(provider.user, "Exam Date: 2 March 2026 (2026-03-02)") {
		t.Errorf("Expected exam date to default to today, got:\n%s", provider.user)
	}
	if !strings.Contains(provider.user, "Content Types Needed: Answer Key, Analysis") {
		t.Errorf("Expected requested type labels, got:\n%s", provider.user)
	}
	if !strings.Contains(provider.system, "JSON array") {
		t.Error("Expected structured system prompt")
	}
	if !strings.Contains(provider.system, "about 2500 words") {
		t.Error("Expected target word count in system prompt")
	}
}

func TestGenerateNormalizesCandidates(t *testing.T) {
	client := newTestClient(t, &fakeProvider{reply: twoArticles})

	result, err := client.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(result.Articles))
	}

	key := result.Articles[0]
	if len(key.Tags) != 2 {
		t.Errorf("Expected case-insensitive tag de-duplication, got %v", key.Tags)
	}
	if !strings.Contains(key.Content, `class="banner"`) {
		t.Errorf("Expected class attribute to survive sanitising, got %s", key.Content)
	}
	if key.Author != content.DefaultAuthor {
		t.Errorf("Expected default author, got %q", key.Author)
	}

	analysis := result.Articles[1]
	if analysis.Slug != "cbse-class-10-science-paper-analysis-2026" {
		t.Errorf("Expected slug derived from title, got %q", analysis.Slug)
	}
	if analysis.Category != content.CategoryClass10 {
		t.Errorf("Expected category from class number, got %q", analysis.Category)
	}
	if analysis.Subject != "Science" {
		t.Errorf("Expected subject from request, got %q", analysis.Subject)
	}
	if analysis.Type != content.TypeAnalysis {
		t.Errorf("Expected Analysis type, got %q", analysis.Type)
	}
	if strings.Contains(analysis.Content, "<script>") {
		t.Errorf("Expected script to be stripped, got %s", analysis.Content)
	}
	if analysis.Excerpt != "Students' reactions were mixed." {
		t.Errorf("Expected excerpt derived from content, got %q", analysis.Excerpt)
	}

	if !strings.Contains(result.Statements, "'Students'' reactions were mixed.'") {
		t.Errorf("Expected doubled quotes in statements, got:\n%s", result.Statements)
	}
	if strings.Count(result.Statements, "ON CONFLICT (slug) DO UPDATE SET") != 2 {
		t.Errorf("Expected one statement per article, got:\n%s", result.Statements)
	}
}

func TestGenerateParsesFencedOutput(t *testing.T) {
	plain := newTestClient(t, &fakeProvider{reply: twoArticles})
	wrapped := newTestClient(t, &fakeProvider{
		reply: "Sure! Here are the articles you asked for:\n\n```json\n" + twoArticles + "\n```\n\nLet me know if you need more.",
	})

	want, err := plain.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Plain generate failed: %v", err)
	}
	got, err := wrapped.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Wrapped generate failed: %v", err)
	}

	if len(got.Articles) != len(want.Articles) {
		t.Fatalf("Expected %d articles, got %d", len(want.Articles), len(got.Articles))
	}
	for i := range want.Articles {
		if got.Articles[i].Slug != want.Articles[i].Slug || got.Articles[i].Content != want.Articles[i].Content {
			t.Errorf("Article %d differs: %+v vs %+v", i, got.Articles[i], want.Articles[i])
		}
	}
}

func TestGenerateParseErrors(t *testing.T) {
	noArray := strings.Repeat("I cannot produce that content right now. ", 30)
	client := newTestClient(t, &fakeProvider{reply: noArray})

	_, err := client.Generate(context.Background(), validRequest())
	var parseErr *content.GenerationParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected GenerationParseError, got %v", err)
	}
	if len(parseErr.Raw) != 500 {
		t.Errorf("Expected 500-byte raw preview, got %d", len(parseErr.Raw))
	}

	client = newTestClient(t, &fakeProvider{reply: `[{"title": "broken",]`})
	_, err = client.Generate(context.Background(), validRequest())
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected GenerationParseError for invalid JSON, got %v", err)
	}
}

func TestGenerateShapeErrors(t *testing.T) {
	for _, reply := range []string{
		"[]",
		`["just a string"]`,
		`[{"content": "no title"}]`,
	} {
		client := newTestClient(t, &fakeProvider{reply: reply})
		_, err := client.Generate(context.Background(), validRequest())
		var shapeErr *content.GenerationShapeError
		if !errors.As(err, &shapeErr) {
			t.Errorf("Reply %q: expected GenerationShapeError, got %v", reply, err)
		}
	}
}

func TestGenerateDropsDuplicateSlugs(t *testing.T) {
	reply := `[
		{"slug": "same", "title": "First", "type": "News"},
		{"slug": "same", "title": "Second", "type": "Syllabus"}
	]`
	client := newTestClient(t, &fakeProvider{reply: reply})

	result, err := client.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Articles) != 1 || result.Articles[0].Title != "First" {
		t.Errorf("Expected first duplicate to win, got %+v", result.Articles)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("Expected one warning, got %v", result.Warnings)
	}
}

func TestGenerateStatementsMode(t *testing.T) {
	provider := &fakeProvider{reply: "```sql\n-- Answer Key\nINSERT INTO articles (slug) VALUES ('x');\n```"}
	client := newTestClient(t, provider, WithMode(ModeStatements))

	result, err := client.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Statements != "-- Answer Key\nINSERT INTO articles (slug) VALUES ('x');" {
		t.Errorf("Unexpected statements: %q", result.Statements)
	}
	if len(result.Articles) != 0 {
		t.Errorf("Expected no structured articles, got %d", len(result.Articles))
	}
	if !strings.Contains(provider.system, "INSERT statements") {
		t.Error("Expected statements system prompt")
	}
}

func TestGenerateTimeout(t *testing.T) {
	client := newTestClient(t, blockingProvider{}, WithTimeout(20*time.Millisecond))

	_, err := client.Generate(context.Background(), validRequest())
	var timeoutErr *content.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Expected TimeoutError, got %v", err)
	}
	if timeoutErr.After != 20*time.Millisecond {
		t.Errorf("Expected timeout of 20ms, got %v", timeoutErr.After)
	}
}

func TestGenerateCancelled(t *testing.T) {
	client := newTestClient(t, blockingProvider{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, validRequest())
	var timeoutErr *content.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Expected TimeoutError, got %v", err)
	}
	if timeoutErr.After != 0 {
		t.Errorf("Expected cancellation without deadline, got %v", timeoutErr.After)
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	client := newTestClient(t, &fakeProvider{err: errors.New("503 upstream")})

	_, err := client.Generate(context.Background(), validRequest())
	if err == nil || !strings.Contains(err.Error(), "503 upstream") {
		t.Errorf("Expected provider error to be wrapped, got %v", err)
	}

	var providerErr *content.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if providerErr.Provider != "fake" {
		t.Errorf("Expected provider 'fake', got '%s'", providerErr.Provider)
	}
}

type fakeFetcher struct {
	text string
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string) (string, error) {
	return f.text, f.err
}

func TestGenerateIncludesSource(t *testing.T) {
	provider := &fakeProvider{reply: twoArticles}
	client := newTestClient(t, provider, WithFetcher(fakeFetcher{text: "## Official notice\nExam postponed."}))

	req := validRequest()
	req.SourceURL = "https://example.com/notice"
	if _, err := client.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !strings.Contains(provider.user, "Reference material:\n## Official notice") {
		t.Errorf("Expected source in user prompt, got:\n%s", provider.user)
	}

	failing := newTestClient(t, &fakeProvider{reply: twoArticles}, WithFetcher(fakeFetcher{err: errors.New("HTTP 404")}))
	result, err := failing.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected generation to continue without source, got %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected a warning about the skipped source")
	}
}
