package service

import (
	"math"
	"time"

	"kinto/internal/models"
	"kinto/pkg/config"
)

type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "High"
	ConfidenceMedium ConfidenceLabel = "Medium"
	ConfidenceLow    ConfidenceLabel = "Low"
)

// ConfidenceFactors is the fixed five-signal record. Each factor lies in
// [0,1] and is owned exclusively by the component that computes it; the
// scorer only combines them. The factor set itself is fixed, hence a struct
// rather than a map.
type ConfidenceFactors struct {
	RetrievalScore  float64
	PassageCoverage float64
	ModelCertainty  float64
	RecencyFactor   float64
	SourceTrust     float64
}

// sourceTrust weights categories by how tightly their content is curated.
// Billing and account answers come straight from policy; coach and pathway
// content is partly community sourced.
var sourceTrust = map[models.Category]float64{
	models.CategoryOnboarding:      0.85,
	models.CategoryResume:          0.85,
	models.CategoryCoach:           0.7,
	models.CategoryInsights:        0.8,
	models.CategoryPathways:        0.7,
	models.CategoryBilling:         0.95,
	models.CategoryAccount:         0.95,
	models.CategoryTroubleshooting: 0.8,
	models.CategoryIntegrations:    0.8,
}

const defaultSourceTrust = 0.6

// ConfidenceScorer reduces the five factors to a score and a discrete label.
// It is pure and stateless: identical factor tuples always yield identical
// outputs.
type ConfidenceScorer struct {
	weights config.ConfidenceWeights
	high    float64
	mid     float64
}

func NewConfidenceScorer(cfg *config.EngineConfig) *ConfidenceScorer {
	return &ConfidenceScorer{
		weights: cfg.Weights,
		high:    cfg.HighThreshold,
		mid:     cfg.MidThreshold,
	}
}

// Score combines the factors with the configured weights. Label boundaries
// are half-open: a score exactly at the high threshold is High, exactly at
// the mid threshold is Medium.
func (s *ConfidenceScorer) Score(f ConfidenceFactors) (float64, ConfidenceLabel) {
	score := s.weights.Retrieval*f.RetrievalScore +
		s.weights.Coverage*f.PassageCoverage +
		s.weights.ModelCertainty*f.ModelCertainty +
		s.weights.Recency*f.RecencyFactor +
		s.weights.SourceTrust*f.SourceTrust
	score = clamp01(score)

	switch {
	case score >= s.high:
		return score, ConfidenceHigh
	case score >= s.mid:
		return score, ConfidenceMedium
	default:
		return score, ConfidenceLow
	}
}

// RetrievalScore is the best result's relevance; zero without results.
func RetrievalScore(results []RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].Relevance
}

// PassageCoverage is the fraction of the query's key terms that appear in
// any retrieved passage or its title.
func PassageCoverage(query string, results []RetrievalResult) float64 {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 || len(results) == 0 {
		return 0
	}

	passageTerms := make(map[string]struct{})
	for _, res := range results {
		for _, t := range Tokenize(res.Excerpt + " " + res.Title) {
			passageTerms[t] = struct{}{}
		}
	}

	covered := 0
	for _, t := range queryTokens {
		if _, ok := passageTerms[t]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(queryTokens))
}

// RecencyFactor decays with article age: 1.0 for fresh content, halving
// every configured half-life.
func RecencyFactor(lastUpdated time.Time, halfLife time.Duration, now time.Time) float64 {
	if lastUpdated.IsZero() || !lastUpdated.Before(now) {
		return 1
	}
	age := now.Sub(lastUpdated)
	return math.Pow(0.5, float64(age)/float64(halfLife))
}

// SourceTrust is the static per-category trust weight.
func SourceTrust(category models.Category) float64 {
	if trust, ok := sourceTrust[category]; ok {
		return trust
	}
	return defaultSourceTrust
}
