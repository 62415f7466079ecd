package dto

// UpsertArticleRequest creates a new article or publishes a new version of an
// existing one (matched by ID). Version is assigned server-side.
type UpsertArticleRequest struct {
	ID              string   `json:"id,omitempty"`
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	CanonicalQs     []string `json:"canonical_questions"`
	Answer          string   `json:"answer"`
	Steps           []string `json:"steps,omitempty"`
	Examples        []string `json:"examples,omitempty"`
	Troubleshooting []string `json:"troubleshooting,omitempty"`
	RelatedIDs      []string `json:"related_ids,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Category        string   `json:"category"`
	SecurityClass   string   `json:"security_class,omitempty"`
	Locale          string   `json:"locale,omitempty"`
	Popularity      float64  `json:"popularity,omitempty"`
}

type ArticleResponse struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	CanonicalQs   []string `json:"canonical_questions"`
	Answer        string   `json:"answer"`
	Steps         []string `json:"steps,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Category      string   `json:"category"`
	SecurityClass string   `json:"security_class"`
	Locale        string   `json:"locale"`
	Version       int      `json:"version"`
	LastUpdated   string   `json:"last_updated"`
}
