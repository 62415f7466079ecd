package service

import (
	"fmt"
	"strings"

	"kinto/internal/dto"
	"kinto/internal/models"
	"kinto/pkg/config"

	"go.uber.org/zap"
)

const fallbackAnswer = "I couldn't find a confident answer to that in our help content. " +
	"Rather than guess, I'd suggest browsing the topics below or talking to a member of our team."

// Synthesizer turns retrieval results plus a confidence verdict into the
// final response. It never refuses silently: empty retrieval or a Low label
// still produces a well-formed answer with the uncertainty fallback.
type Synthesizer struct {
	index  *KnowledgeIndex
	cfg    *config.EngineConfig
	logger *zap.Logger
}

func NewSynthesizer(index *KnowledgeIndex, cfg *config.EngineConfig, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		index:  index,
		cfg:    cfg,
		logger: logger,
	}
}

// SelectSources picks the articles an answer may draw on: the top-ranked
// result, plus the runner-up only when it is nearly as relevant. A weak
// second source dilutes a confident answer. Generation and synthesis both
// work from this selection, so provenance lists exactly what was used.
func (s *Synthesizer) SelectSources(results []RetrievalResult) []RetrievalResult {
	if len(results) == 0 {
		return nil
	}
	sources := []RetrievalResult{results[0]}
	if len(results) > 1 && results[1].Relevance >= results[0].Relevance-s.cfg.SecondSourceMargin {
		sources = append(sources, results[1])
	}
	return sources
}

// Synthesize builds the outbound response from the sources chosen by
// SelectSources. generated is the collaborator's answer text and may be empty;
// composition then falls back to the top article's own answer body.
func (s *Synthesizer) Synthesize(
	query string,
	uctx dto.UserContext,
	sources []RetrievalResult,
	score float64,
	label ConfidenceLabel,
	generated string,
) dto.KintoResponse {
	if len(sources) == 0 || label == ConfidenceLow {
		return s.fallback(score, label)
	}

	used := sources
	answer := s.composeAnswer(generated, used)

	provenance := make([]dto.Citation, 0, len(used))
	for _, res := range used {
		provenance = append(provenance, dto.Citation{
			ArticleID: res.ArticleID,
			Title:     res.Title,
			Link:      s.cfg.ArticleLinkBase + res.ArticleID,
			Excerpt:   res.Excerpt,
		})
	}

	return dto.KintoResponse{
		Answer:          StripPlaceholders(answer),
		Confidence:      score,
		ConfidenceLabel: string(label),
		Provenance:      provenance,
		NextSteps:       s.nextSteps(used),
		UIActions: dto.UIActions{
			// Deep-linking the article only makes sense when one source
			// clearly carried the answer.
			ShowFullArticle: len(used) == 1,
			TalkToHuman:     false,
		},
	}
}

func (s *Synthesizer) fallback(score float64, label ConfidenceLabel) dto.KintoResponse {
	return dto.KintoResponse{
		Answer:          fallbackAnswer,
		Confidence:      score,
		ConfidenceLabel: string(label),
		Provenance:      []dto.Citation{},
		NextSteps: []string{
			fmt.Sprintf("Browse the %s help articles", models.CategoryResume),
			fmt.Sprintf("Browse the %s help articles", models.CategoryAccount),
			fmt.Sprintf("Browse the %s help articles", models.CategoryTroubleshooting),
			"Rephrase your question with a few more details",
		},
		UIActions: dto.UIActions{
			ShowFullArticle: false,
			TalkToHuman:     true,
		},
	}
}

func (s *Synthesizer) composeAnswer(generated string, used []RetrievalResult) string {
	var b strings.Builder

	top := s.index.Article(used[0].ArticleID)
	if generated != "" {
		b.WriteString(strings.TrimSpace(generated))
	} else if top != nil {
		b.WriteString(strings.TrimSpace(top.Answer))
	} else {
		b.WriteString(used[0].Excerpt)
	}

	if top != nil && len(top.Steps) > 0 {
		b.WriteString("\n")
		for i, step := range top.Steps {
			fmt.Fprintf(&b, "\n%d. %s", i+1, step)
		}
	}

	if len(used) > 1 {
		if second := s.index.Article(used[1].ArticleID); second != nil {
			b.WriteString("\n\n")
			b.WriteString(strings.TrimSpace(firstParagraph(second.Answer)))
		}
	}
	return b.String()
}

func (s *Synthesizer) nextSteps(used []RetrievalResult) []string {
	steps := make([]string, 0, 3)
	for _, res := range used {
		steps = append(steps, "Read the full article: "+res.Title)
	}

	if top := s.index.Article(used[0].ArticleID); top != nil {
		for _, relID := range top.RelatedIDs {
			if related := s.index.Article(relID.String()); related != nil {
				steps = append(steps, "See also: "+related.Title)
				break
			}
		}
	}
	return steps
}

func firstParagraph(text string) string {
	if i := strings.Index(text, "\n\n"); i > 0 {
		return text[:i]
	}
	return text
}
