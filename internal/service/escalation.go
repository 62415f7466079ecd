package service

import (
	"context"
	"time"

	"kinto/internal/dto"
	"kinto/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TicketSink accepts escalation tickets for external handling. The engine
// never reads ticket status back.
type TicketSink interface {
	Create(ctx context.Context, ticket *models.EscalationTicket) error
}

// EscalationOutcome is the terminal state of the escalation decision for one
// request.
type EscalationOutcome string

const (
	EscalationNone          EscalationOutcome = "none"
	EscalationTicketCreated EscalationOutcome = "ticket_created"
	EscalationOfferedOnly   EscalationOutcome = "offered_without_consent"
)

// EscalationManager decides when a conversation needs a human and builds the
// handoff ticket. The repeated-question signal is supplied by the caller, not
// recomputed here.
type EscalationManager struct {
	sink   TicketSink
	logger *zap.Logger
}

func NewEscalationManager(sink TicketSink, logger *zap.Logger) *EscalationManager {
	return &EscalationManager{
		sink:   sink,
		logger: logger,
	}
}

// ShouldEscalate triggers on low confidence, on medium confidence for a
// question the session has already asked, or on an explicit user request.
func (m *EscalationManager) ShouldEscalate(label ConfidenceLabel, repeatedQuestion, explicitRequest bool) bool {
	if explicitRequest {
		return true
	}
	switch label {
	case ConfidenceLow:
		return true
	case ConfidenceMedium:
		return repeatedQuestion
	default:
		return false
	}
}

// BuildTicket assembles the immutable handoff record.
func (m *EscalationManager) BuildTicket(
	sessionID string,
	uctx dto.UserContext,
	transcript []models.TranscriptTurn,
	confidence float64,
	provenance []dto.Citation,
	reason string,
) *models.EscalationTicket {
	citations := make([]models.TicketCitation, 0, len(provenance))
	for _, c := range provenance {
		citations = append(citations, models.TicketCitation{
			ArticleID: c.ArticleID,
			Title:     c.Title,
		})
	}

	return &models.EscalationTicket{
		ID:         uuid.New(),
		SessionID:  sessionID,
		UserID:     uctx.UserID,
		Transcript: transcript,
		Consent:    uctx.Consent,
		Page:       uctx.Page,
		Citations:  citations,
		Confidence: confidence,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
}

// Escalate runs the consent gate. Without consent no ticket exists and the
// response merely offers the handoff; with consent the ticket goes to the
// external sink. A sink failure degrades to the offer, never to a caller
// visible error.
func (m *EscalationManager) Escalate(
	ctx context.Context,
	sessionID string,
	uctx dto.UserContext,
	transcript []models.TranscriptTurn,
	confidence float64,
	provenance []dto.Citation,
	reason string,
) EscalationOutcome {
	if !uctx.Consent {
		return EscalationOfferedOnly
	}

	ticket := m.BuildTicket(sessionID, uctx, transcript, confidence, provenance, reason)
	if err := m.sink.Create(ctx, ticket); err != nil {
		m.logger.Error("Escalation ticket creation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return EscalationOfferedOnly
	}

	m.logger.Info("Escalation ticket created",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
	)
	return EscalationTicketCreated
}
