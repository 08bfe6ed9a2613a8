package publish

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/boardswallah/boards-press/app/content"
	"github.com/boardswallah/boards-press/app/database"
	"github.com/boardswallah/boards-press/app/metrics"
)

const DefaultRegistrySize = 64

var ErrBatchNotFound = errors.New("batch not found")

// Pipeline persists candidate articles one by one. A failing record never stops its siblings.
type Pipeline struct {
	store   database.ArticleRepository
	secret  string
	batches *lru.Cache[string, *Batch]
	now     func() time.Time
}

func NewPipeline(store database.ArticleRepository, secret string, registrySize int) (*Pipeline, error) {
	if registrySize <= 0 {
		registrySize = DefaultRegistrySize
	}

	batches, err := lru.New[string, *Batch](registrySize)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch registry: %w", err)
	}

	return &Pipeline{
		store:   store,
		secret:  secret,
		batches: batches,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Publish upserts a generated candidate, forcing it featured and dated now.
func (p *Pipeline) Publish(ctx context.Context, candidate content.Article) (content.Article, error) {
	candidate.Featured = true
	return p.upsert(ctx, candidate)
}

// Save upserts an article from the admin editor. Featured is kept as given.
func (p *Pipeline) Save(ctx context.Context, article content.Article) (content.Article, error) {
	return p.upsert(ctx, article)
}

func (p *Pipeline) upsert(ctx context.Context, article content.Article) (content.Article, error) {
	if reason := precheck(article); reason != "" {
		metrics.RecordPublish(false)
		return content.Article{}, &content.PublishFailure{Slug: article.Slug, Reason: reason}
	}

	article.PublishDate = p.now()
	if article.Author == "" {
		article.Author = content.DefaultAuthor
	}

	saved, err := p.store.UpsertArticle(ctx, article)
	if err != nil {
		metrics.RecordPublish(false)
		slog.Error("Failed to publish article", "slug", article.Slug, "error", err)
		return content.Article{}, &content.PublishFailure{Slug: article.Slug, Reason: "store rejected the article", Err: err}
	}

	metrics.RecordPublish(true)
	slog.Info("Article published", "slug", saved.Slug, "type", saved.Type, "featured", saved.Featured)
	return saved, nil
}

func precheck(a content.Article) string {
	var missing []string
	if strings.TrimSpace(a.Slug) == "" {
		missing = append(missing, "slug is required")
	}
	if strings.TrimSpace(a.Title) == "" {
		missing = append(missing, "title is required")
	}
	if !a.Category.Valid() {
		missing = append(missing, fmt.Sprintf("unknown category %q", a.Category))
	}
	if !a.Type.Valid() {
		missing = append(missing, fmt.Sprintf("unknown type %q", a.Type))
	}
	return strings.Join(missing, "; ")
}

// PublishBatch registers a batch and attempts every candidate in input order.
func (p *Pipeline) PublishBatch(ctx context.Context, candidates []content.Article) *Batch {
	batch := newBatch(uuid.NewString(), candidates, p.now())
	p.batches.Add(batch.ID, batch)

	for i := range candidates {
		p.attempt(ctx, batch, i)
	}

	slog.Info("Batch processed", "batch", batch.ID, "total", batch.Len(), "succeeded", batch.Succeeded())
	return batch
}

func (p *Pipeline) Batch(id string) (*Batch, bool) {
	return p.batches.Get(id)
}

// Retry republishes the stored candidate of a failed record. Only failed records may be retried.
func (p *Pipeline) Retry(ctx context.Context, batchID string, index int) (Outcome, error) {
	batch, ok := p.batches.Get(batchID)
	if !ok {
		return Outcome{}, ErrBatchNotFound
	}

	if err := p.attempt(ctx, batch, index); err != nil {
		return Outcome{}, err
	}

	return batch.Outcomes()[index], nil
}

// attempt runs one record. Errors are recorded on the outcome; only claim errors are returned.
func (p *Pipeline) attempt(ctx context.Context, batch *Batch, i int) error {
	candidate, err := batch.begin(i, p.now())
	if err != nil {
		return err
	}

	_, err = p.Publish(ctx, candidate)
	batch.finish(i, err, p.now())
	return nil
}

// Delete removes an article by slug once the secret matches. Removing an absent slug succeeds.
func (p *Pipeline) Delete(ctx context.Context, slug, secret string) error {
	if p.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(p.secret)) != 1 {
		slog.Warn("Rejected delete with invalid secret", "slug", slug)
		return &content.AuthorizationError{Action: "delete " + slug}
	}

	existed, err := p.store.DeleteArticle(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to delete article %s: %w", slug, err)
	}

	if !existed {
		slog.Info("Delete requested for absent article", "slug", slug)
		return nil
	}

	slog.Info("Article deleted", "slug", slug)
	return nil
}

func failureReason(err error) string {
	var failure *content.PublishFailure
	if errors.As(err, &failure) {
		if failure.Err != nil {
			return failure.Reason + ": " + failure.Err.Error()
		}
		return failure.Reason
	}
	return err.Error()
}
