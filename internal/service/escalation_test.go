package service

import (
	"context"
	"errors"
	"testing"

	"kinto/internal/dto"
	"kinto/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTicketSink struct {
	tickets []*models.EscalationTicket
	err     error
}

func (s *fakeTicketSink) Create(_ context.Context, ticket *models.EscalationTicket) error {
	if s.err != nil {
		return s.err
	}
	s.tickets = append(s.tickets, ticket)
	return nil
}

func TestEscalationManager_ShouldEscalate(t *testing.T) {
	m := NewEscalationManager(&fakeTicketSink{}, zap.NewNop())

	cases := []struct {
		name     string
		label    ConfidenceLabel
		repeated bool
		explicit bool
		want     bool
	}{
		{"low confidence", ConfidenceLow, false, false, true},
		{"medium repeated", ConfidenceMedium, true, false, true},
		{"medium first ask", ConfidenceMedium, false, false, false},
		{"high confidence", ConfidenceHigh, false, false, false},
		{"high repeated", ConfidenceHigh, true, false, false},
		{"explicit request wins", ConfidenceHigh, false, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, m.ShouldEscalate(tc.label, tc.repeated, tc.explicit))
		})
	}
}

func TestEscalationManager_ConsentGate(t *testing.T) {
	sink := &fakeTicketSink{}
	m := NewEscalationManager(sink, zap.NewNop())

	outcome := m.Escalate(context.Background(), "sess-1",
		dto.UserContext{UserID: "u-1", Consent: false}, nil, 0.3, nil, "low confidence")

	assert.Equal(t, EscalationOfferedOnly, outcome)
	assert.Empty(t, sink.tickets)
}

func TestEscalationManager_CreatesTicketWithConsent(t *testing.T) {
	sink := &fakeTicketSink{}
	m := NewEscalationManager(sink, zap.NewNop())

	uctx := dto.UserContext{UserID: "u-1", Page: "/resume", Consent: true}
	transcript := []models.TranscriptTurn{
		{Role: "user", Content: "my score dropped"},
		{Role: "assistant", Content: "here is why"},
	}
	provenance := []dto.Citation{{ArticleID: resumeArticleID.String(), Title: "Understanding your resume score"}}

	outcome := m.Escalate(context.Background(), "sess-1", uctx, transcript, 0.42, provenance, "Low answer confidence (0.42)")

	assert.Equal(t, EscalationTicketCreated, outcome)
	require.Len(t, sink.tickets, 1)

	ticket := sink.tickets[0]
	assert.NotEqual(t, uuid.Nil, ticket.ID)
	assert.Equal(t, "sess-1", ticket.SessionID)
	assert.Equal(t, "u-1", ticket.UserID)
	assert.Equal(t, "/resume", ticket.Page)
	assert.True(t, ticket.Consent)
	assert.Equal(t, transcript, ticket.Transcript)
	assert.Equal(t, 0.42, ticket.Confidence)
	assert.Equal(t, "Low answer confidence (0.42)", ticket.Reason)
	require.Len(t, ticket.Citations, 1)
	assert.Equal(t, resumeArticleID.String(), ticket.Citations[0].ArticleID)
	assert.False(t, ticket.CreatedAt.IsZero())
}

func TestEscalationManager_SinkFailureDegradesToOffer(t *testing.T) {
	sink := &fakeTicketSink{err: errors.New("ticketing down")}
	m := NewEscalationManager(sink, zap.NewNop())

	outcome := m.Escalate(context.Background(), "sess-1",
		dto.UserContext{Consent: true}, nil, 0.3, nil, "low confidence")

	assert.Equal(t, EscalationOfferedOnly, outcome)
	assert.Empty(t, sink.tickets)
}
