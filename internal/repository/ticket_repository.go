package repository

import (
	"context"
	"encoding/json"

	"kinto/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TicketRepository is the escalation ticket sink. Tickets are insert-only;
// status is owned by the external ticketing system.
type TicketRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTicketRepository(db *pgxpool.Pool, logger *zap.Logger) *TicketRepository {
	return &TicketRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *models.EscalationTicket) error {
	transcript, err := json.Marshal(ticket.Transcript)
	if err != nil {
		return err
	}
	citations, err := json.Marshal(ticket.Citations)
	if err != nil {
		return err
	}

	query := squirrel.Insert("escalation_tickets").
		Columns("id", "session_id", "user_id", "transcript", "consent",
			"page", "citations", "confidence", "reason", "created_at").
		Values(ticket.ID, ticket.SessionID, ticket.UserID, transcript, ticket.Consent,
			ticket.Page, citations, ticket.Confidence, ticket.Reason, ticket.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
