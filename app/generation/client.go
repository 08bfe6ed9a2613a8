package generation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/boardswallah/boards-press/app/catalog"
	"github.com/boardswallah/boards-press/app/content"
	"github.com/boardswallah/boards-press/app/metrics"
)

// Mode selects what the model is asked to return.
type Mode string

const (
	// ModeStructured asks for a JSON array of articles.
	ModeStructured Mode = "structured"
	// ModeStatements asks for raw SQL insert statements, passed through untouched.
	ModeStatements Mode = "statements"
)

const DefaultTimeout = 90 * time.Second

// Result is one generation run. Articles is empty in statements mode.
type Result struct {
	Mode       Mode              `json:"mode"`
	Provider   string            `json:"provider"`
	Articles   []content.Article `json:"articles"`
	Statements string            `json:"statements"`
	Warnings   []string          `json:"warnings,omitempty"`
	Duration   time.Duration     `json:"duration"`
}

// Client runs generation requests against a provider. It never persists anything.
type Client struct {
	provider Provider
	catalog  *catalog.Store
	fetcher  Fetcher
	mode     Mode
	timeout  time.Duration
	policy   *bluemonday.Policy
	now      func() time.Time
}

type Option func(*Client)

func WithMode(mode Mode) Option {
	return func(c *Client) {
		if mode != "" {
			c.mode = mode
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithFetcher(fetcher Fetcher) Option {
	return func(c *Client) { c.fetcher = fetcher }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(provider Provider, catalogStore *catalog.Store, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		catalog:  catalogStore,
		mode:     ModeStructured,
		timeout:  DefaultTimeout,
		policy:   newContentPolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Mode() Mode {
	return c.mode
}

// Generate validates req, calls the provider once and turns its reply into candidates.
// It does not retry; callers decide whether to run it again.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	r, err := req.resolve(c.now())
	if err != nil {
		return nil, err
	}

	if c.catalog != nil && !c.catalog.KnownSubject(r.Category, r.Subject) {
		slog.Warn("Subject not in catalog", "subject", r.Subject, "category", r.Category)
	}

	tier, err := c.tierSettings(r.Tier)
	if err != nil {
		return nil, content.NewValidationError(err.Error())
	}

	result := &Result{Mode: c.mode, Provider: c.provider.Name(), Articles: []content.Article{}}

	var source string
	if req.SourceURL != "" && c.fetcher != nil {
		source, err = c.fetcher.Fetch(ctx, req.SourceURL)
		if err != nil {
			slog.Warn("Failed to fetch source material", "url", req.SourceURL, "error", err)
			result.Warnings = append(result.Warnings, "source material skipped: "+err.Error())
		}
	}

	system, user, err := buildPrompts(c.mode, newPromptData(r, tier.TargetWords, source))
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slog.Info("Generation started",
		"provider", c.provider.Name(),
		"mode", c.mode,
		"subject", r.Subject,
		"class", r.ClassNumber,
		"types", len(r.Types),
		"tier", r.Tier)

	start := time.Now()
	raw, err := c.provider.Complete(callCtx, system, user, tier.MaxTokens)
	result.Duration = time.Since(start)

	if err != nil {
		if callCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			c.observe("timeout", result.Duration)
			timeoutErr := &content.TimeoutError{Operation: "generation", Err: err}
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				timeoutErr.After = c.timeout
			}
			return nil, timeoutErr
		}
		c.observe("error", result.Duration)
		return nil, &content.ProviderError{Provider: c.provider.Name(), Err: err}
	}

	if c.mode == ModeStatements {
		result.Statements = stripFences(raw)
		if result.Statements == "" {
			c.observe("invalid", result.Duration)
			return nil, &content.GenerationShapeError{Reason: "empty statement output"}
		}
		c.observe("ok", result.Duration)
		slog.Info("Generation completed", "mode", c.mode, "chars", len(result.Statements), "duration", result.Duration)
		return result, nil
	}

	candidates, err := parseCandidates(raw)
	if err != nil {
		c.observe("invalid", result.Duration)
		return nil, err
	}

	articles, warnings := normalize(candidates, r, c.policy)
	result.Warnings = append(result.Warnings, warnings...)
	if len(articles) == 0 {
		c.observe("invalid", result.Duration)
		return nil, &content.GenerationShapeError{Reason: "no usable articles: " + strings.Join(warnings, "; ")}
	}

	result.Articles = articles
	result.Statements = RenderStatements(articles)

	c.observe("ok", result.Duration)
	slog.Info("Generation completed",
		"mode", c.mode,
		"articles", len(articles),
		"skipped", len(warnings),
		"duration", result.Duration)

	return result, nil
}

func (c *Client) tierSettings(tier catalog.LengthTier) (catalog.TierSettings, error) {
	if c.catalog == nil {
		return catalog.NewStore("").Tier(tier)
	}
	return c.catalog.Tier(tier)
}

func (c *Client) observe(result string, d time.Duration) {
	metrics.GenerationDuration.WithLabelValues(string(c.mode), result).Observe(d.Seconds())
}
