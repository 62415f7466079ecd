package models

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptTurn is a single exchange captured on an escalation ticket.
type TranscriptTurn struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// TicketCitation records a knowledge base source that was in play when the
// conversation escalated.
type TicketCitation struct {
	ArticleID string `json:"article_id"`
	Title     string `json:"title"`
}

// EscalationTicket is the human-handoff record. It is immutable once created
// and is consumed by an external ticketing collaborator; the engine never
// reads ticket status back.
type EscalationTicket struct {
	ID         uuid.UUID        `db:"id"`
	SessionID  string           `db:"session_id"`
	UserID     string           `db:"user_id"`
	Transcript []TranscriptTurn `db:"transcript"`
	Consent    bool             `db:"consent"`
	Page       string           `db:"page"`
	Citations  []TicketCitation `db:"citations"`
	Confidence float64          `db:"confidence"`
	Reason     string           `db:"reason"`
	CreatedAt  time.Time        `db:"created_at"`
}
