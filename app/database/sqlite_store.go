package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/boardswallah/boards-press/app/content"
)

// sqliteTimeLayout is fixed-width so lexical order matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is the embedded Content Store.
type SQLiteStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

// OpenSQLite opens (creating if needed) the database file and applies migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer at a time; the site has a single admin.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	if _, _, err := RunMigrations(db, DialectSQLite); err != nil {
		db.Close()
		return nil, err
	}

	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertArticle(ctx context.Context, article content.Article) (content.Article, error) {
	now := s.now()
	if article.PublishDate.IsZero() {
		article.PublishDate = now
	}

	tags, err := json.Marshal(nonNilTags(article.Tags))
	if err != nil {
		return content.Article{}, fmt.Errorf("failed to encode tags: %w", err)
	}

	query, args, err := s.builder.Insert("articles").
		Columns(insertColumns...).
		Values(
			uuid.NewString(), article.Slug, article.Title, article.Excerpt, article.Content, string(tags),
			string(article.Category), string(article.Type), article.Subject,
			nullable(article.Author), nullable(article.PDFURL), nullable(article.PDFSize),
			formatSQLiteTime(article.PublishDate), article.Featured, 0,
			formatSQLiteTime(now), formatSQLiteTime(now),
		).
		Suffix(upsertArticleSuffix).
		ToSql()
	if err != nil {
		return content.Article{}, fmt.Errorf("failed to build upsert: %w", err)
	}

	var createdAt string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&article.ID, &article.Views, &createdAt)
	if err != nil {
		return content.Article{}, fmt.Errorf("failed to upsert article: %w", err)
	}

	if article.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return content.Article{}, err
	}
	article.PublishDate = article.PublishDate.UTC()
	article.UpdatedAt = now
	article.Tags = nonNilTags(article.Tags)

	return article, nil
}

func (s *SQLiteStore) GetArticle(ctx context.Context, slug string) (*content.Article, error) {
	query, args, err := s.builder.Select(articleColumns...).From("articles").
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	article, err := scanSQLiteArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

func (s *SQLiteStore) ListArticles(ctx context.Context, filter content.ListFilter) ([]content.Article, error) {
	query, args, err := listArticlesQuery(s.builder, filter, 1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := []content.Article{}
	for rows.Next() {
		article, err := scanSQLiteArticle(rows)
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

func (s *SQLiteStore) ListSlugs(ctx context.Context) ([]content.SlugEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, publish_date, updated_at, featured FROM articles ORDER BY publish_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}
	defer rows.Close()

	entries := []content.SlugEntry{}
	for rows.Next() {
		var (
			entry                  content.SlugEntry
			publishDate, updatedAt string
		)
		if err := rows.Scan(&entry.Slug, &publishDate, &updatedAt, &entry.Featured); err != nil {
			return nil, fmt.Errorf("failed to scan slug row: %w", err)
		}
		if entry.PublishDate, err = parseSQLiteTime(publishDate); err != nil {
			return nil, err
		}
		if entry.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slug rows: %w", err)
	}

	return entries, nil
}

func (s *SQLiteStore) CountArticles(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) DeleteArticle(ctx context.Context, slug string) (bool, error) {
	query, args, err := s.builder.Delete("articles").Where(sq.Eq{"slug": slug}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func (s *SQLiteStore) ListSchedules(ctx context.Context, class string) ([]content.ExamSchedule, error) {
	query, args, err := s.builder.Select("id", "class", "exam_date", "subject", "time").
		From("exam_schedules").
		Where(sq.Eq{"class": class}).
		OrderBy("exam_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *SQLiteStore) UpsertSchedule(ctx context.Context, schedule content.ExamSchedule) (content.ExamSchedule, error) {
	query, args, err := s.builder.Insert("exam_schedules").
		Columns("id", "class", "exam_date", "subject", "time").
		Values(uuid.NewString(), schedule.Class, schedule.ExamDate, schedule.Subject, schedule.Time).
		Suffix(upsertScheduleSuffix).
		ToSql()
	if err != nil {
		return content.ExamSchedule{}, fmt.Errorf("failed to build upsert: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&schedule.ID); err != nil {
		return content.ExamSchedule{}, fmt.Errorf("failed to upsert schedule: %w", err)
	}

	return schedule, nil
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (*content.SiteSettings, error) {
	query, args, err := s.builder.Select(settingsColumns...).From("site_settings").Where(sq.Eq{"id": 1}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		settings  content.SiteSettings
		updatedAt string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&settings.SiteTitle, &settings.PrimaryColor, &settings.SecondaryColor, &settings.FontFamily,
		&settings.TopNotificationText, &settings.TopNotificationLink, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	if settings.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
		return nil, err
	}

	return &settings, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, settings content.SiteSettings) (content.SiteSettings, error) {
	settings.UpdatedAt = s.now()

	query, args, err := s.builder.Insert("site_settings").
		Columns(append([]string{"id"}, settingsColumns...)...).
		Values(1, settings.SiteTitle, settings.PrimaryColor, settings.SecondaryColor, settings.FontFamily,
			settings.TopNotificationText, settings.TopNotificationLink, formatSQLiteTime(settings.UpdatedAt)).
		Suffix(upsertSettingsSuffix).
		ToSql()
	if err != nil {
		return content.SiteSettings{}, fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return content.SiteSettings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	return settings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteArticle(row rowScanner) (*content.Article, error) {
	var (
		article                           content.Article
		tags, category, articleType       string
		publishDate, createdAt, updatedAt string
	)

	err := row.Scan(
		&article.ID, &article.Slug, &article.Title, &article.Excerpt, &article.Content, &tags,
		&category, &articleType, &article.Subject, &article.Author, &article.PDFURL, &article.PDFSize,
		&publishDate, &article.Featured, &article.Views, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.Category = content.Category(category)
	article.Type = content.Type(articleType)

	if err := json.Unmarshal([]byte(tags), &article.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for %s: %w", article.Slug, err)
	}
	article.Tags = nonNilTags(article.Tags)

	if article.PublishDate, err = parseSQLiteTime(publishDate); err != nil {
		return nil, err
	}
	if article.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	if article.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
		return nil, err
	}

	return &article, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(value string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, value)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
