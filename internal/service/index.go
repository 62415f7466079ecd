package service

import (
	"context"
	"math"
	"strings"
	"sync/atomic"
	"unicode"

	"kinto/internal/models"

	"go.uber.org/zap"
)

// ArticleSource supplies the article corpus for index builds. In production
// this is the Postgres-backed article repository.
type ArticleSource interface {
	List(ctx context.Context) ([]*models.KBArticle, error)
}

// indexedArticle is one article with its derived retrieval structures.
type indexedArticle struct {
	article        *models.KBArticle
	questionTokens [][]string
	titleTokens    []string
	tagSet         map[string]struct{}
	vector         map[string]float64 // tf-idf weighted body terms
	norm           float64
}

// indexSnapshot is an immutable view of the knowledge base. Concurrent
// readers share a snapshot; content updates build a fresh one and swap the
// pointer, never mutate in place.
type indexSnapshot struct {
	articles []*indexedArticle
	byID     map[string]*models.KBArticle
	docFreq  map[string]int
	docCount int
}

// KnowledgeIndex is the process-wide, read-mostly KB handle.
type KnowledgeIndex struct {
	source   ArticleSource
	logger   *zap.Logger
	snapshot atomic.Pointer[indexSnapshot]
}

func NewKnowledgeIndex(source ArticleSource, logger *zap.Logger) *KnowledgeIndex {
	idx := &KnowledgeIndex{
		source: source,
		logger: logger,
	}
	idx.snapshot.Store(buildSnapshot(nil))
	return idx
}

// Reload rebuilds the snapshot from the article source and swaps it in
// atomically. On failure the previous snapshot stays active, which keeps
// retrieval degraded-but-serving rather than erroring per request.
func (idx *KnowledgeIndex) Reload(ctx context.Context) error {
	articles, err := idx.source.List(ctx)
	if err != nil {
		idx.logger.Error("Knowledge index reload failed, keeping previous snapshot", zap.Error(err))
		return err
	}

	idx.snapshot.Store(buildSnapshot(articles))
	idx.logger.Info("Knowledge index reloaded", zap.Int("articles", len(articles)))
	return nil
}

func (idx *KnowledgeIndex) current() *indexSnapshot {
	return idx.snapshot.Load()
}

// Size reports how many articles the active snapshot holds.
func (idx *KnowledgeIndex) Size() int {
	return len(idx.current().articles)
}

// Article returns the indexed article with the given id, or nil.
func (idx *KnowledgeIndex) Article(id string) *models.KBArticle {
	return idx.current().byID[id]
}

func buildSnapshot(articles []*models.KBArticle) *indexSnapshot {
	snap := &indexSnapshot{
		byID:     make(map[string]*models.KBArticle, len(articles)),
		docFreq:  make(map[string]int),
		docCount: len(articles),
	}

	termCounts := make([]map[string]int, 0, len(articles))
	for _, a := range articles {
		body := a.Answer
		if len(a.Steps) > 0 {
			body += " " + strings.Join(a.Steps, " ")
		}
		counts := termFrequencies(Tokenize(body + " " + a.Summary))
		termCounts = append(termCounts, counts)
		for term := range counts {
			snap.docFreq[term]++
		}
	}

	for i, a := range articles {
		ia := &indexedArticle{
			article:     a,
			titleTokens: Tokenize(a.Title),
			tagSet:      make(map[string]struct{}, len(a.Tags)),
		}
		for _, q := range a.CanonicalQs {
			ia.questionTokens = append(ia.questionTokens, Tokenize(q))
		}
		for _, tag := range a.Tags {
			for _, t := range Tokenize(tag) {
				ia.tagSet[t] = struct{}{}
			}
		}

		ia.vector = make(map[string]float64, len(termCounts[i]))
		for term, tf := range termCounts[i] {
			w := float64(tf) * idf(snap, term)
			ia.vector[term] = w
			ia.norm += w * w
		}
		ia.norm = math.Sqrt(ia.norm)

		snap.articles = append(snap.articles, ia)
		snap.byID[a.ID.String()] = a
	}
	return snap
}

func idf(snap *indexSnapshot, term string) float64 {
	df := snap.docFreq[term]
	return math.Log(1 + float64(snap.docCount+1)/float64(df+1))
}

func termFrequencies(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "how": {},
	"i": {}, "in": {}, "is": {}, "it": {}, "my": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "want": {}, "was": {}, "what": {},
	"when": {}, "where": {}, "why": {}, "with": {}, "you": {}, "your": {},
}

// Tokenize lowercases, splits on non-alphanumerics and drops stopwords and
// single-character fragments. Retrieval, coverage scoring and the
// repeated-question signal all share this normalization.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
