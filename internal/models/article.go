package models

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryOnboarding      Category = "onboarding"
	CategoryResume          Category = "resume"
	CategoryCoach           Category = "coach"
	CategoryInsights        Category = "insights"
	CategoryPathways        Category = "pathways"
	CategoryBilling         Category = "billing"
	CategoryAccount         Category = "account"
	CategoryTroubleshooting Category = "troubleshooting"
	CategoryIntegrations    Category = "integrations"
)

// Categories lists every valid article category, in display order.
var Categories = []Category{
	CategoryOnboarding,
	CategoryResume,
	CategoryCoach,
	CategoryInsights,
	CategoryPathways,
	CategoryBilling,
	CategoryAccount,
	CategoryTroubleshooting,
	CategoryIntegrations,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type SecurityClass string

const (
	SecurityPublic   SecurityClass = "public"
	SecurityInternal SecurityClass = "internal"
)

// KBArticle is a unit of curated knowledge base content. Canonical questions
// must be non-empty; version increments on every content edit.
type KBArticle struct {
	ID              uuid.UUID     `db:"id"`
	Title           string        `db:"title"`
	Summary         string        `db:"summary"`
	CanonicalQs     []string      `db:"canonical_questions"`
	Answer          string        `db:"answer"`
	Steps           []string      `db:"steps"`
	Examples        []string      `db:"examples"`
	Troubleshooting []string      `db:"troubleshooting"`
	RelatedIDs      []uuid.UUID   `db:"related_ids"`
	Tags            []string      `db:"tags"`
	Category        Category      `db:"category"`
	SecurityClass   SecurityClass `db:"security_class"`
	Locale          string        `db:"locale"`
	Version         int           `db:"version"`
	Popularity      float64       `db:"popularity"`
	LastUpdated     time.Time     `db:"last_updated"`
	CreatedAt       time.Time     `db:"created_at"`
}
