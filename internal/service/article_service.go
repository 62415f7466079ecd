package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kinto/internal/dto"
	"kinto/internal/models"
	"kinto/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrArticleInvalid = errors.New("article is invalid")

// ArticleService owns the staff-facing content surface: validated upserts
// that bump the version, plus the index reswap that makes an edit visible to
// concurrent chat requests atomically.
type ArticleService struct {
	articleRepo *repository.ArticleRepository
	index       *KnowledgeIndex
	logger      *zap.Logger
}

func NewArticleService(articleRepo *repository.ArticleRepository, index *KnowledgeIndex, logger *zap.Logger) *ArticleService {
	return &ArticleService{
		articleRepo: articleRepo,
		index:       index,
		logger:      logger,
	}
}

func (s *ArticleService) Upsert(ctx context.Context, req *dto.UpsertArticleRequest) (*models.KBArticle, error) {
	article, err := articleFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.articleRepo.Upsert(ctx, article); err != nil {
		return nil, fmt.Errorf("failed to store article: %w", err)
	}

	// The stored version is authoritative; re-read before reindexing.
	stored, err := s.articleRepo.GetByID(ctx, article.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back article: %w", err)
	}

	if err := s.index.Reload(ctx); err != nil {
		s.logger.Warn("Article stored but index reload failed; edit visible after next reload",
			zap.String("article_id", stored.ID.String()),
			zap.Error(err),
		)
	}
	return stored, nil
}

func (s *ArticleService) Get(ctx context.Context, id uuid.UUID) (*models.KBArticle, error) {
	return s.articleRepo.GetByID(ctx, id)
}

func (s *ArticleService) ReloadIndex(ctx context.Context) (int, error) {
	if err := s.index.Reload(ctx); err != nil {
		return 0, err
	}
	return s.index.Size(), nil
}

func articleFromRequest(req *dto.UpsertArticleRequest) (*models.KBArticle, error) {
	if req.Title == "" || req.Answer == "" {
		return nil, fmt.Errorf("%w: title and answer are required", ErrArticleInvalid)
	}
	if len(req.CanonicalQs) == 0 {
		return nil, fmt.Errorf("%w: at least one canonical question is required", ErrArticleInvalid)
	}

	category := models.Category(req.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrArticleInvalid, req.Category)
	}

	securityClass := models.SecurityClass(req.SecurityClass)
	if securityClass == "" {
		securityClass = models.SecurityPublic
	}
	if securityClass != models.SecurityPublic && securityClass != models.SecurityInternal {
		return nil, fmt.Errorf("%w: unknown security class %q", ErrArticleInvalid, req.SecurityClass)
	}

	id := uuid.New()
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed id", ErrArticleInvalid)
		}
		id = parsed
	}

	var related []uuid.UUID
	for _, s := range req.RelatedIDs {
		relID, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed related id %q", ErrArticleInvalid, s)
		}
		related = append(related, relID)
	}

	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	return &models.KBArticle{
		ID:              id,
		Title:           req.Title,
		Summary:         req.Summary,
		CanonicalQs:     req.CanonicalQs,
		Answer:          req.Answer,
		Steps:           req.Steps,
		Examples:        req.Examples,
		Troubleshooting: req.Troubleshooting,
		RelatedIDs:      related,
		Tags:            req.Tags,
		Category:        category,
		SecurityClass:   securityClass,
		Locale:          locale,
		Popularity:      req.Popularity,
		LastUpdated:     time.Now(),
	}, nil
}

// ArticleToResponse shapes an article for the staff API.
func ArticleToResponse(a *models.KBArticle) dto.ArticleResponse {
	return dto.ArticleResponse{
		ID:            a.ID.String(),
		Title:         a.Title,
		Summary:       a.Summary,
		CanonicalQs:   a.CanonicalQs,
		Answer:        a.Answer,
		Steps:         a.Steps,
		Tags:          a.Tags,
		Category:      string(a.Category),
		SecurityClass: string(a.SecurityClass),
		Locale:        a.Locale,
		Version:       a.Version,
		LastUpdated:   a.LastUpdated.Format(time.RFC3339),
	}
}
