package generation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/boardswallah/boards-press/app/content"
)

const (
	maxSourceBytes = 5 << 20
	// DefaultSourceChars bounds the reference material appended to the prompt.
	DefaultSourceChars = 12000
)

// Fetcher turns a reference URL into prompt-ready text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// SourceFetcher downloads a page, keeps its readable part and converts it to markdown.
type SourceFetcher struct {
	httpClient *http.Client
	converter  *md.Converter
	userAgent  string
	maxChars   int
}

var _ Fetcher = (*SourceFetcher)(nil)

func NewSourceFetcher(httpClient *http.Client, userAgent string, maxChars int) *SourceFetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if maxChars <= 0 {
		maxChars = DefaultSourceChars
	}
	return &SourceFetcher{
		httpClient: httpClient,
		converter:  md.NewConverter("", true, nil),
		userAgent:  userAgent,
		maxChars:   maxChars,
	}
}

func (f *SourceFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid source URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("source returned HTTP %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxSourceBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract readable content: %w", err)
	}

	var html strings.Builder
	if err := article.RenderHTML(&html); err != nil {
		return "", fmt.Errorf("failed to render readable content: %w", err)
	}

	markdown, err := f.converter.ConvertString(html.String())
	if err != nil {
		return "", fmt.Errorf("failed to convert source to markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", fmt.Errorf("no readable content at %s", pageURL.Host)
	}

	if len(markdown) > f.maxChars {
		markdown = content.Preview(markdown, f.maxChars) + "..."
	}

	slog.Debug("Source material fetched", "url", pageURL.String(), "chars", len(markdown))
	return markdown, nil
}
