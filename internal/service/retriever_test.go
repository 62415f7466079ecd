package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"kinto/internal/dto"
	"kinto/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRetriever(t *testing.T, articles ...*models.KBArticle) *Retriever {
	t.Helper()
	return NewRetriever(buildIndex(t, articles...), testEngineConfig(), zap.NewNop())
}

func TestRetriever_RanksMatchingArticleFirst(t *testing.T) {
	r := newTestRetriever(t, resumeArticle(), billingArticle(), calendarArticle())

	results := r.Retrieve("How is my resume score calculated?", dto.UserContext{}, 5)

	require.NotEmpty(t, results)
	assert.Equal(t, resumeArticleID.String(), results[0].ArticleID)
	assert.Equal(t, "Understanding your resume score", results[0].Title)
	assert.NotEmpty(t, results[0].Excerpt)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Relevance, results[i].Relevance)
	}

	// A paraphrase that shares key terms with the canonical question still
	// lands on the same article.
	results = r.Retrieve("How do I reset my resume score?", dto.UserContext{}, 5)
	require.NotEmpty(t, results)
	assert.Equal(t, resumeArticleID.String(), results[0].ArticleID)
}

func TestRetriever_HonorsLimit(t *testing.T) {
	r := newTestRetriever(t, resumeArticle(), billingArticle(), calendarArticle())

	results := r.Retrieve("how do I manage my account help", dto.UserContext{}, 1)
	assert.LessOrEqual(t, len(results), 1)
}

func TestRetriever_RelevanceFloorYieldsEmpty(t *testing.T) {
	r := newTestRetriever(t, resumeArticle(), billingArticle())

	results := r.Retrieve("quantum chromodynamics warp drive", dto.UserContext{}, 5)
	assert.Empty(t, results)
}

func TestRetriever_EmptyQueryYieldsEmpty(t *testing.T) {
	r := newTestRetriever(t, resumeArticle())

	assert.Empty(t, r.Retrieve("", dto.UserContext{}, 5))
	assert.Empty(t, r.Retrieve("a I", dto.UserContext{}, 5))
}

func TestRetriever_InternalArticlesRequireStaff(t *testing.T) {
	r := newTestRetriever(t, internalArticle(), billingArticle())
	query := "How do I merge duplicate accounts?"

	member := r.Retrieve(query, dto.UserContext{Role: string(models.RoleMember)}, 5)
	for _, res := range member {
		assert.NotEqual(t, internalArticleID.String(), res.ArticleID)
	}

	staff := r.Retrieve(query, dto.UserContext{Role: string(models.RoleStaff)}, 5)
	require.NotEmpty(t, staff)
	assert.Equal(t, internalArticleID.String(), staff[0].ArticleID)
}

func TestRetriever_TieBreaksOnPopularityThenID(t *testing.T) {
	lowID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	highID := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")
	updated := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	twin := func(id uuid.UUID, popularity float64) *models.KBArticle {
		return &models.KBArticle{
			ID:            id,
			Title:         "Exporting your resume",
			CanonicalQs:   []string{"How do I export my resume?"},
			Answer:        "Export your resume as PDF from the editor toolbar.",
			Category:      models.CategoryResume,
			SecurityClass: models.SecurityPublic,
			Popularity:    popularity,
			LastUpdated:   updated,
		}
	}

	r := newTestRetriever(t, twin(lowID, 0.2), twin(highID, 0.9))
	results := r.Retrieve("How do I export my resume?", dto.UserContext{}, 5)
	require.Len(t, results, 2)
	assert.Equal(t, highID.String(), results[0].ArticleID)

	r = newTestRetriever(t, twin(highID, 0.5), twin(lowID, 0.5))
	results = r.Retrieve("How do I export my resume?", dto.UserContext{}, 5)
	require.Len(t, results, 2)
	assert.Equal(t, lowID.String(), results[0].ArticleID)

	// Same corpus, same query, same order.
	again := r.Retrieve("How do I export my resume?", dto.UserContext{}, 5)
	assert.Equal(t, results, again)
}

func TestKnowledgeIndex_ReloadKeepsSnapshotOnFailure(t *testing.T) {
	src := &memorySource{articles: []*models.KBArticle{resumeArticle(), billingArticle()}}
	idx := NewKnowledgeIndex(src, zap.NewNop())
	require.NoError(t, idx.Reload(context.Background()))
	require.Equal(t, 2, idx.Size())

	src.err = errors.New("connection refused")
	require.Error(t, idx.Reload(context.Background()))

	assert.Equal(t, 2, idx.Size())
	assert.NotNil(t, idx.Article(resumeArticleID.String()))
}

func TestKnowledgeIndex_StartsEmpty(t *testing.T) {
	idx := NewKnowledgeIndex(&memorySource{}, zap.NewNop())
	assert.Equal(t, 0, idx.Size())
	assert.Nil(t, idx.Article(resumeArticleID.String()))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"resume", "score", "calculated"},
		Tokenize("How is my resume score calculated?"))
	assert.Empty(t, Tokenize("a I ?!"))
}
