package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatLogEntry is one append-only record of a handled chat turn. The message
// stored here is the redacted form; the engine writes entries and never reads
// them back within a request.
type ChatLogEntry struct {
	ID         uuid.UUID `db:"id"`
	SessionID  string    `db:"session_id"`
	UserID     string    `db:"user_id"`
	Message    string    `db:"message"`
	Answer     string    `db:"answer"`
	Confidence float64   `db:"confidence"`
	Escalated  bool      `db:"escalated"`
	CreatedAt  time.Time `db:"created_at"`
}
