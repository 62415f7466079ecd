package repository

import (
	"context"
	"time"

	"kinto/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var articleColumns = []string{
	"id", "title", "summary", "canonical_questions", "answer", "steps",
	"examples", "troubleshooting", "related_ids", "tags", "category",
	"security_class", "locale", "version", "popularity", "last_updated", "created_at",
}

type ArticleRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewArticleRepository(db *pgxpool.Pool, logger *zap.Logger) *ArticleRepository {
	return &ArticleRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts a new article or publishes a new version of an existing one.
// The version column increments on every content edit of the same id.
func (r *ArticleRepository) Upsert(ctx context.Context, a *models.KBArticle) error {
	now := time.Now()
	related := make([]string, 0, len(a.RelatedIDs))
	for _, id := range a.RelatedIDs {
		related = append(related, id.String())
	}

	query := squirrel.Insert("kb_articles").
		Columns(articleColumns...).
		Values(a.ID, a.Title, a.Summary, a.CanonicalQs, a.Answer, a.Steps,
			a.Examples, a.Troubleshooting, related, a.Tags, a.Category,
			a.SecurityClass, a.Locale, 1, a.Popularity, now, now).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			canonical_questions = EXCLUDED.canonical_questions,
			answer = EXCLUDED.answer,
			steps = EXCLUDED.steps,
			examples = EXCLUDED.examples,
			troubleshooting = EXCLUDED.troubleshooting,
			related_ids = EXCLUDED.related_ids,
			tags = EXCLUDED.tags,
			category = EXCLUDED.category,
			security_class = EXCLUDED.security_class,
			locale = EXCLUDED.locale,
			version = kb_articles.version + 1,
			popularity = EXCLUDED.popularity,
			last_updated = EXCLUDED.last_updated`).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ArticleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.KBArticle, error) {
	query := squirrel.Select(articleColumns...).
		From("kb_articles").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, sql, args...)
	return scanArticle(row)
}

// List returns every article. The engine loads the whole corpus into its
// in-memory index snapshot, so there is no pagination here.
func (r *ArticleRepository) List(ctx context.Context) ([]*models.KBArticle, error) {
	query := squirrel.Select(articleColumns...).
		From("kb_articles").
		OrderBy("id ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.KBArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.KBArticle, error) {
	var a models.KBArticle
	var related []string
	if err := row.Scan(
		&a.ID, &a.Title, &a.Summary, &a.CanonicalQs, &a.Answer, &a.Steps,
		&a.Examples, &a.Troubleshooting, &related, &a.Tags, &a.Category,
		&a.SecurityClass, &a.Locale, &a.Version, &a.Popularity, &a.LastUpdated, &a.CreatedAt,
	); err != nil {
		return nil, err
	}

	for _, s := range related {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		a.RelatedIDs = append(a.RelatedIDs, id)
	}
	return &a, nil
}
