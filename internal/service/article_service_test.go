package service

import (
	"testing"

	"kinto/internal/dto"
	"kinto/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUpsertRequest() *dto.UpsertArticleRequest {
	return &dto.UpsertArticleRequest{
		Title:       "Understanding your resume score",
		Summary:     "What goes into the score.",
		CanonicalQs: []string{"How is my resume score calculated?"},
		Answer:      "The score blends five weighted signals.",
		Category:    string(models.CategoryResume),
	}
}

func TestArticleFromRequest_Defaults(t *testing.T) {
	article, err := articleFromRequest(validUpsertRequest())
	require.NoError(t, err)

	assert.Equal(t, models.SecurityPublic, article.SecurityClass)
	assert.Equal(t, "en", article.Locale)
	assert.NotEqual(t, uuid.Nil, article.ID)
	assert.False(t, article.LastUpdated.IsZero())
}

func TestArticleFromRequest_KeepsSuppliedID(t *testing.T) {
	req := validUpsertRequest()
	req.ID = resumeArticleID.String()

	article, err := articleFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, resumeArticleID, article.ID)
}

func TestArticleFromRequest_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.UpsertArticleRequest)
	}{
		{"missing title", func(r *dto.UpsertArticleRequest) { r.Title = "" }},
		{"missing answer", func(r *dto.UpsertArticleRequest) { r.Answer = "" }},
		{"no canonical questions", func(r *dto.UpsertArticleRequest) { r.CanonicalQs = nil }},
		{"unknown category", func(r *dto.UpsertArticleRequest) { r.Category = "recipes" }},
		{"unknown security class", func(r *dto.UpsertArticleRequest) { r.SecurityClass = "secret" }},
		{"malformed id", func(r *dto.UpsertArticleRequest) { r.ID = "not-a-uuid" }},
		{"malformed related id", func(r *dto.UpsertArticleRequest) { r.RelatedIDs = []string{"nope"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validUpsertRequest()
			tc.mutate(req)
			_, err := articleFromRequest(req)
			assert.ErrorIs(t, err, ErrArticleInvalid)
		})
	}
}
