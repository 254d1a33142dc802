package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"briefly/backend/internal/research"
	"briefly/backend/internal/scrape"
)

var ErrNotFound = errors.New("store: not found")

type Source struct {
	ID             string `json:"id"`
	Topic          string `json:"topic"`
	URL            string `json:"url"`
	Name           string `json:"name"`
	ArticleCount   int    `json:"article_count"`
	LastArticle    string `json:"last_article"`
	RelevanceScore int    `json:"relevance_score"`
	Reason         string `json:"reason"`
	RSSURL         string `json:"rss_url,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type Article struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"`
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	URL         string `json:"url"`
	Author      string `json:"author,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

// SaveSources upserts a run's validated sources under its topic. A
// re-run of the same topic refreshes scores instead of duplicating
// rows.
func (s Store) SaveSources(ctx context.Context, topic string, sources []research.ValidatedSource) ([]Source, error) {
	query := `
INSERT INTO sources (id, topic, url, name, article_count, last_article, relevance_score, reason, rss_url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(topic, url) DO UPDATE SET
  name = excluded.name,
  article_count = excluded.article_count,
  last_article = excluded.last_article,
  relevance_score = excluded.relevance_score,
  reason = excluded.reason,
  rss_url = excluded.rss_url
RETURNING id, topic, url, name, article_count, last_article, relevance_score, reason, rss_url, created_at;
`

	normalizedTopic := strings.TrimSpace(topic)
	out := make([]Source, 0, len(sources))
	for _, source := range sources {
		var row Source
		err := s.db.QueryRowContext(ctx, query,
			uuid.NewString(),
			normalizedTopic,
			source.URL,
			source.Name,
			source.ArticleCount,
			source.LastArticleTitle,
			source.RelevanceScore,
			source.Reason,
			source.RSSURL,
		).Scan(
			&row.ID,
			&row.Topic,
			&row.URL,
			&row.Name,
			&row.ArticleCount,
			&row.LastArticle,
			&row.RelevanceScore,
			&row.Reason,
			&row.RSSURL,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("save source %s: %w", source.URL, err)
		}
		out = append(out, row)
	}
	return out, nil
}

// ListSources returns saved sources, optionally filtered by topic.
func (s Store) ListSources(ctx context.Context, topic string) ([]Source, error) {
	query := `
SELECT id, topic, url, name, article_count, last_article, relevance_score, reason, rss_url, created_at
FROM sources
`
	args := []any{}
	if trimmed := strings.TrimSpace(topic); trimmed != "" {
		query += "WHERE topic = ?\n"
		args = append(args, trimmed)
	}
	query += "ORDER BY created_at DESC, relevance_score DESC;"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var row Source
		if err := rows.Scan(
			&row.ID,
			&row.Topic,
			&row.URL,
			&row.Name,
			&row.ArticleCount,
			&row.LastArticle,
			&row.RelevanceScore,
			&row.Reason,
			&row.RSSURL,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s Store) GetSource(ctx context.Context, id string) (Source, error) {
	query := `
SELECT id, topic, url, name, article_count, last_article, relevance_score, reason, rss_url, created_at
FROM sources
WHERE id = ?
LIMIT 1;
`

	var row Source
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&row.ID,
		&row.Topic,
		&row.URL,
		&row.Name,
		&row.ArticleCount,
		&row.LastArticle,
		&row.RelevanceScore,
		&row.Reason,
		&row.RSSURL,
		&row.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, ErrNotFound
	}
	if err != nil {
		return Source{}, fmt.Errorf("get source: %w", err)
	}
	return row, nil
}

// SaveArticles upserts freshly scraped articles for a source.
func (s Store) SaveArticles(ctx context.Context, sourceID string, articles []scrape.Article) ([]Article, error) {
	query := `
INSERT INTO articles (id, source_id, title, summary, url, author, image_url, published_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_id, url) DO UPDATE SET
  title = excluded.title,
  summary = excluded.summary,
  author = excluded.author,
  image_url = excluded.image_url,
  published_at = excluded.published_at
RETURNING id, source_id, title, summary, url, author, image_url, COALESCE(published_at, ''), created_at;
`

	out := make([]Article, 0, len(articles))
	for _, article := range articles {
		var publishedAt any
		if article.PublishedAt != nil {
			publishedAt = article.PublishedAt.UTC().Format(time.RFC3339)
		}

		var row Article
		err := s.db.QueryRowContext(ctx, query,
			uuid.NewString(),
			sourceID,
			article.Title,
			article.Summary,
			article.URL,
			article.Author,
			article.ImageURL,
			publishedAt,
		).Scan(
			&row.ID,
			&row.SourceID,
			&row.Title,
			&row.Summary,
			&row.URL,
			&row.Author,
			&row.ImageURL,
			&row.PublishedAt,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("save article %s: %w", article.URL, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func (s Store) ListArticlesBySource(ctx context.Context, sourceID string) ([]Article, error) {
	query := `
SELECT id, source_id, title, summary, url, author, image_url, COALESCE(published_at, ''), created_at
FROM articles
WHERE source_id = ?
ORDER BY published_at DESC, created_at DESC;
`

	rows, err := s.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []Article
	for rows.Next() {
		var row Article
		if err := rows.Scan(
			&row.ID,
			&row.SourceID,
			&row.Title,
			&row.Summary,
			&row.URL,
			&row.Author,
			&row.ImageURL,
			&row.PublishedAt,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
