package service

import (
	"context"
	"testing"
	"time"

	"kinto/internal/models"
	"kinto/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	resumeArticleID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	billingArticleID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	calendarArticleID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	internalArticleID = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	exportArticleID   = uuid.MustParse("55555555-5555-5555-5555-555555555555")
)

func testEngineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		TopK:               5,
		MinRelevance:       0.25,
		LexicalWeight:      0.55,
		SemanticWeight:     0.45,
		SecondSourceMargin: 0.1,
		RecencyHalfLife:    180 * 24 * time.Hour,
		Weights: config.ConfidenceWeights{
			Retrieval:      0.2,
			Coverage:       0.2,
			ModelCertainty: 0.2,
			Recency:        0.2,
			SourceTrust:    0.2,
		},
		HighThreshold:   0.8,
		MidThreshold:    0.5,
		ArticleLinkBase: "/help/articles/",
	}
}

// memorySource is an in-memory ArticleSource for index tests.
type memorySource struct {
	articles []*models.KBArticle
	err      error
}

func (s *memorySource) List(_ context.Context) ([]*models.KBArticle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

func buildIndex(t *testing.T, articles ...*models.KBArticle) *KnowledgeIndex {
	t.Helper()
	idx := NewKnowledgeIndex(&memorySource{articles: articles}, zap.NewNop())
	require.NoError(t, idx.Reload(context.Background()))
	return idx
}

func resumeArticle() *models.KBArticle {
	return &models.KBArticle{
		ID:          resumeArticleID,
		Title:       "Understanding your resume score",
		Summary:     "What goes into the resume score and how to improve it.",
		CanonicalQs: []string{"How is my resume score calculated?"},
		Answer: "Your resume score is calculated from five weighted signals: keyword match, " +
			"formatting, impact statements, section completeness and length. " +
			"Each signal is scored independently and combined into the final number you see.",
		Steps: []string{
			"Open your dashboard and select Resume",
			"Review the per-signal breakdown",
			"Apply the suggested edits and re-upload",
		},
		RelatedIDs:    []uuid.UUID{billingArticleID},
		Tags:          []string{"resume", "score", "analysis"},
		Category:      models.CategoryResume,
		SecurityClass: models.SecurityPublic,
		Locale:        "en",
		Version:       1,
		Popularity:    0.9,
		LastUpdated:   time.Now().Add(-24 * time.Hour),
	}
}

func billingArticle() *models.KBArticle {
	return &models.KBArticle{
		ID:          billingArticleID,
		Title:       "Managing your subscription and billing",
		Summary:     "Plans, invoices and payment methods.",
		CanonicalQs: []string{"How do I change my subscription plan?"},
		Answer: "You can change your subscription plan at any time from the billing page. " +
			"Upgrades apply immediately and downgrades apply at the next renewal.",
		Tags:          []string{"billing", "subscription", "payment"},
		Category:      models.CategoryBilling,
		SecurityClass: models.SecurityPublic,
		Locale:        "en",
		Version:       1,
		Popularity:    0.7,
		LastUpdated:   time.Now().Add(-48 * time.Hour),
	}
}

func calendarArticle() *models.KBArticle {
	return &models.KBArticle{
		ID:          calendarArticleID,
		Title:       "Connecting your calendar",
		Summary:     "Sync interview slots with Google or Outlook calendars.",
		CanonicalQs: []string{"How do I connect my calendar?"},
		Answer: "Connect your calendar from the integrations page. " +
			"Grant read and write access so interview slots stay in sync.",
		Tags:          []string{"calendar", "integrations", "sync"},
		Category:      models.CategoryIntegrations,
		SecurityClass: models.SecurityPublic,
		Locale:        "en",
		Version:       1,
		Popularity:    0.5,
		LastUpdated:   time.Now().Add(-72 * time.Hour),
	}
}

// exportArticle overlaps resume queries on the shared "resume" term: close
// enough to clear the relevance floor, never close enough to be cited next to
// the dedicated resume-score article.
func exportArticle() *models.KBArticle {
	return &models.KBArticle{
		ID:          exportArticleID,
		Title:       "Exporting your resume",
		Summary:     "Download your resume as a PDF.",
		CanonicalQs: []string{"How do I export my resume?"},
		Answer: "Export your resume as a PDF from the editor toolbar. " +
			"The export keeps your chosen template and formatting.",
		Tags:          []string{"resume", "export", "pdf"},
		Category:      models.CategoryResume,
		SecurityClass: models.SecurityPublic,
		Locale:        "en",
		Version:       1,
		Popularity:    0.4,
		LastUpdated:   time.Now().Add(-96 * time.Hour),
	}
}

func internalArticle() *models.KBArticle {
	return &models.KBArticle{
		ID:          internalArticleID,
		Title:       "Account merge runbook",
		Summary:     "Internal procedure for merging duplicate member accounts.",
		CanonicalQs: []string{"How do I merge duplicate accounts?"},
		Answer: "To merge duplicate accounts, verify ownership of both, pick the surviving " +
			"account and run the merge job from the admin console.",
		Tags:          []string{"account", "merge", "admin"},
		Category:      models.CategoryAccount,
		SecurityClass: models.SecurityInternal,
		Locale:        "en",
		Version:       1,
		Popularity:    0.3,
		LastUpdated:   time.Now().Add(-24 * time.Hour),
	}
}
