package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/boardswallah/boards-press/app/content"
)

// PgxPool is the subset of *pgxpool.Pool the store uses; pgxmock satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var _ Store = (*PostgresStore)(nil)

// PostgresStore is the hosted Content Store.
type PostgresStore struct {
	pool    PgxPool
	builder sq.StatementBuilderType
	now     func() time.Time
}

// OpenPostgres connects a pool, applies migrations and returns the store.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	_, _, err = RunMigrations(db, DialectPostgres)
	db.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}

	return NewPostgresStore(pool), nil
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertArticle(ctx context.Context, article content.Article) (content.Article, error) {
	now := s.now()
	if article.PublishDate.IsZero() {
		article.PublishDate = now
	}
	article.Tags = nonNilTags(article.Tags)

	query, args, err := s.builder.Insert("articles").
		Columns(insertColumns...).
		Values(
			uuid.NewString(), article.Slug, article.Title, article.Excerpt, article.Content, article.Tags,
			string(article.Category), string(article.Type), article.Subject,
			nullable(article.Author), nullable(article.PDFURL), nullable(article.PDFSize),
			article.PublishDate.UTC(), article.Featured, 0, now, now,
		).
		Suffix(upsertArticleSuffix).
		ToSql()
	if err != nil {
		return content.Article{}, fmt.Errorf("failed to build upsert: %w", err)
	}

	err = s.pool.QueryRow(ctx, query, args...).Scan(&article.ID, &article.Views, &article.CreatedAt)
	if err != nil {
		return content.Article{}, fmt.Errorf("failed to upsert article: %w", err)
	}

	article.PublishDate = article.PublishDate.UTC()
	article.CreatedAt = article.CreatedAt.UTC()
	article.UpdatedAt = now

	return article, nil
}

func (s *PostgresStore) GetArticle(ctx context.Context, slug string) (*content.Article, error) {
	query, args, err := s.builder.Select(articleColumns...).From("articles").
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	article, err := scanPostgresArticle(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

func (s *PostgresStore) ListArticles(ctx context.Context, filter content.ListFilter) ([]content.Article, error) {
	query, args, err := listArticlesQuery(s.builder, filter, true).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := []content.Article{}
	for rows.Next() {
		article, err := scanPostgresArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (s *PostgresStore) ListSlugs(ctx context.Context) ([]content.SlugEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT slug, publish_date, updated_at, featured FROM articles ORDER BY publish_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}
	defer rows.Close()

	entries := []content.SlugEntry{}
	for rows.Next() {
		var entry content.SlugEntry
		if err := rows.Scan(&entry.Slug, &entry.PublishDate, &entry.UpdatedAt, &entry.Featured); err != nil {
			return nil, fmt.Errorf("failed to scan slug row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slug rows: %w", err)
	}

	return entries, nil
}

func (s *PostgresStore) CountArticles(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, slug string) (bool, error) {
	query, args, err := s.builder.Delete("articles").Where(sq.Eq{"slug": slug}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete article: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListSchedules(ctx context.Context, class string) ([]content.ExamSchedule, error) {
	query, args, err := s.builder.Select("id", "class", "exam_date", "subject", "time").
		From("exam_schedules").
		Where(sq.Eq{"class": class}).
		OrderBy("exam_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	schedules := []content.ExamSchedule{}
	for rows.Next() {
		var schedule content.ExamSchedule
		if err := rows.Scan(&schedule.ID, &schedule.Class, &schedule.ExamDate, &schedule.Subject, &schedule.Time); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}

	return schedules, nil
}

func (s *PostgresStore) UpsertSchedule(ctx context.Context, schedule content.ExamSchedule) (content.ExamSchedule, error) {
	query, args, err := s.builder.Insert("exam_schedules").
		Columns("id", "class", "exam_date", "subject", "time").
		Values(uuid.NewString(), schedule.Class, schedule.ExamDate, schedule.Subject, schedule.Time).
		Suffix(upsertScheduleSuffix).
		ToSql()
	if err != nil {
		return content.ExamSchedule{}, fmt.Errorf("failed to build upsert: %w", err)
	}

	if err := s.pool.QueryRow(ctx, query, args...).Scan(&schedule.ID); err != nil {
		return content.ExamSchedule{}, fmt.Errorf("failed to upsert schedule: %w", err)
	}

	return schedule, nil
}

func (s *PostgresStore) GetSettings(ctx context.Context) (*content.SiteSettings, error) {
	query, args, err := s.builder.Select(settingsColumns...).From("site_settings").Where(sq.Eq{"id": 1}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var settings content.SiteSettings
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&settings.SiteTitle, &settings.PrimaryColor, &settings.SecondaryColor, &settings.FontFamily,
		&settings.TopNotificationText, &settings.TopNotificationLink, &settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	settings.UpdatedAt = settings.UpdatedAt.UTC()
	return &settings, nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, settings content.SiteSettings) (content.SiteSettings, error) {
	settings.UpdatedAt = s.now()

	query, args, err := s.builder.Insert("site_settings").
		Columns(append([]string{"id"}, settingsColumns...)...).
		Values(1, settings.SiteTitle, settings.PrimaryColor, settings.SecondaryColor, settings.FontFamily,
			settings.TopNotificationText, settings.TopNotificationLink, settings.UpdatedAt).
		Suffix(upsertSettingsSuffix).
		ToSql()
	if err != nil {
		return content.SiteSettings{}, fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return content.SiteSettings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	return settings, nil
}

func scanPostgresArticle(row pgx.Row) (*content.Article, error) {
	var (
		article               content.Article
		category, articleType string
	)

	err := row.Scan(
		&article.ID, &article.Slug, &article.Title, &article.Excerpt, &article.Content, &article.Tags,
		&category, &articleType, &article.Subject, &article.Author, &article.PDFURL, &article.PDFSize,
		&article.PublishDate, &article.Featured, &article.Views, &article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.Category = content.Category(category)
	article.Type = content.Type(articleType)
	article.Tags = nonNilTags(article.Tags)
	article.PublishDate = article.PublishDate.UTC()
	article.CreatedAt = article.CreatedAt.UTC()
	article.UpdatedAt = article.UpdatedAt.UTC()

	return &article, nil
}
