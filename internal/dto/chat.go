package dto

// UserContext carries already-resolved session context into a chat turn. The
// engine treats it as input supplied by the edge, never something it computes.
type UserContext struct {
	UserID       string   `json:"user_id,omitempty"`
	Role         string   `json:"role,omitempty"` // member or staff; staff unlocks internal articles
	Page         string   `json:"page,omitempty"`
	UserProfile  string   `json:"user_profile,omitempty"`
	LastMessages []string `json:"last_messages,omitempty"`
	Consent      bool     `json:"consent,omitempty"` // consent to human handoff
}

type ChatRequest struct {
	Message   string      `json:"message"`
	SessionID string      `json:"session_id"`
	Context   UserContext `json:"context"`
}

// Citation is one provenance entry: the cited subset of a retrieval result.
type Citation struct {
	ArticleID string `json:"article_id"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Excerpt   string `json:"excerpt"`
}

type UIActions struct {
	ShowFullArticle bool `json:"show_full_article"`
	TalkToHuman     bool `json:"talk_to_human"`
}

type ResponseMeta struct {
	PassageCount int    `json:"passage_count"`
	Model        string `json:"model,omitempty"`
	LatencyMs    int64  `json:"latency_ms"`
}

// KintoResponse is the outbound chat contract. It is constructed once per
// request and immutable after return.
type KintoResponse struct {
	Answer          string        `json:"answer"`
	Confidence      float64       `json:"confidence"`
	ConfidenceLabel string        `json:"confidence_label"` // High, Medium or Low
	Provenance      []Citation    `json:"provenance"`
	NextSteps       []string      `json:"suggested_next_steps"`
	UIActions       UIActions     `json:"ui_actions"`
	Meta            *ResponseMeta `json:"metadata,omitempty"`
}
