package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"kinto/internal/dto"
	"kinto/internal/models"
	"kinto/pkg/config"

	"go.uber.org/zap"
)

// RetrievalResult is one ranked passage match. It carries denormalized
// article metadata so downstream scoring needs no second lookup. Produced per
// request, never persisted.
type RetrievalResult struct {
	ArticleID   string
	Title       string
	Excerpt     string
	Relevance   float64
	Category    models.Category
	Tags        []string
	LastUpdated time.Time
	Popularity  float64
}

// Retriever scores every candidate article against a redacted query with a
// blend of lexical overlap (canonical questions, title, tags) and tf-idf
// cosine similarity over passage content. Read-only after construction.
type Retriever struct {
	index  *KnowledgeIndex
	cfg    *config.EngineConfig
	logger *zap.Logger
}

func NewRetriever(index *KnowledgeIndex, cfg *config.EngineConfig, logger *zap.Logger) *Retriever {
	return &Retriever{
		index:  index,
		cfg:    cfg,
		logger: logger,
	}
}

// Retrieve returns at most k results sorted by non-increasing relevance.
// Internal articles are excluded unless the context carries staff
// authorization. An empty or unavailable index yields an empty slice, never
// an error, so the synthesizer fallback path activates naturally.
func (r *Retriever) Retrieve(query string, uctx dto.UserContext, k int) []RetrievalResult {
	snap := r.index.current()
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 || snap.docCount == 0 {
		return nil
	}

	internalAllowed := uctx.Role == string(models.RoleStaff)
	queryVec, queryNorm := queryVector(snap, queryTokens)

	results := make([]RetrievalResult, 0, len(snap.articles))
	for _, ia := range snap.articles {
		if ia.article.SecurityClass == models.SecurityInternal && !internalAllowed {
			continue
		}

		lexical := lexicalScore(queryTokens, ia)
		semantic := cosine(queryVec, queryNorm, ia)
		relevance := clamp01(r.cfg.LexicalWeight*lexical + r.cfg.SemanticWeight*semantic)
		if relevance < r.cfg.MinRelevance {
			continue
		}

		results = append(results, RetrievalResult{
			ArticleID:   ia.article.ID.String(),
			Title:       ia.article.Title,
			Excerpt:     excerpt(ia.article, queryTokens),
			Relevance:   relevance,
			Category:    ia.article.Category,
			Tags:        ia.article.Tags,
			LastUpdated: ia.article.LastUpdated,
			Popularity:  ia.article.Popularity,
		})
	}

	// Reproducible ordering is a hard requirement: relevance, then
	// popularity, then freshness, then article id.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		if results[i].Popularity != results[j].Popularity {
			return results[i].Popularity > results[j].Popularity
		}
		if !results[i].LastUpdated.Equal(results[j].LastUpdated) {
			return results[i].LastUpdated.After(results[j].LastUpdated)
		}
		return results[i].ArticleID < results[j].ArticleID
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// lexicalScore is the best Dice overlap between the query and any canonical
// question or the title, lifted toward 1 by tag coverage.
func lexicalScore(queryTokens []string, ia *indexedArticle) float64 {
	best := 0.0
	for _, qTokens := range ia.questionTokens {
		if s := diceOverlap(queryTokens, qTokens); s > best {
			best = s
		}
	}
	if s := diceOverlap(queryTokens, ia.titleTokens); s > best {
		best = s
	}

	if len(ia.tagSet) > 0 {
		hits := 0
		for _, t := range queryTokens {
			if _, ok := ia.tagSet[t]; ok {
				hits++
			}
		}
		tagCoverage := float64(hits) / float64(len(queryTokens))
		best += (1 - best) * 0.5 * tagCoverage
	}
	return best
}

func diceOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(set)+len(seen))
}

func queryVector(snap *indexSnapshot, tokens []string) (map[string]float64, float64) {
	vec := make(map[string]float64, len(tokens))
	for term, tf := range termFrequencies(tokens) {
		vec[term] = float64(tf) * idf(snap, term)
	}
	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	return vec, math.Sqrt(norm)
}

func cosine(queryVec map[string]float64, queryNorm float64, ia *indexedArticle) float64 {
	if queryNorm == 0 || ia.norm == 0 {
		return 0
	}
	var dot float64
	for term, qw := range queryVec {
		if aw, ok := ia.vector[term]; ok {
			dot += qw * aw
		}
	}
	return dot / (queryNorm * ia.norm)
}

// excerpt picks the first answer sentence containing a query term, falling
// back to the summary and then the answer head.
func excerpt(a *models.KBArticle, queryTokens []string) string {
	wanted := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		wanted[t] = struct{}{}
	}

	for _, sentence := range strings.Split(a.Answer, ".") {
		for _, t := range Tokenize(sentence) {
			if _, ok := wanted[t]; ok {
				return strings.TrimSpace(sentence) + "."
			}
		}
	}

	if a.Summary != "" {
		return a.Summary
	}
	if len(a.Answer) > 200 {
		return strings.TrimSpace(a.Answer[:200]) + "…"
	}
	return a.Answer
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
