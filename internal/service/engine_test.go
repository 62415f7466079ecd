package service

import (
	"context"
	"errors"
	"testing"

	"kinto/internal/dto"
	"kinto/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	text      string
	certainty float64
	err       error
	calls     int
	passages  []RetrievalResult
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, passages []RetrievalResult) (string, float64, error) {
	g.calls++
	g.passages = passages
	if g.err != nil {
		return "", 0, g.err
	}
	return g.text, g.certainty, nil
}

func (g *fakeGenerator) Model() string { return "test-model" }

type fakeChatLog struct {
	entries []*models.ChatLogEntry
	err     error
}

func (l *fakeChatLog) Append(_ context.Context, entry *models.ChatLogEntry) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, entry)
	return nil
}

type engineDeps struct {
	engine    *Engine
	generator *fakeGenerator
	tickets   *fakeTicketSink
	chatLog   *fakeChatLog
}

func newTestEngine(t *testing.T, articles ...*models.KBArticle) engineDeps {
	t.Helper()
	cfg := testEngineConfig()
	logger := zap.NewNop()

	redactor, err := NewRedactor()
	require.NoError(t, err)

	index := buildIndex(t, articles...)
	generator := &fakeGenerator{text: "Here is how your score works.", certainty: 0.9}
	tickets := &fakeTicketSink{}
	chatLog := &fakeChatLog{}

	engine := NewEngine(
		redactor,
		index,
		NewRetriever(index, cfg, logger),
		NewConfidenceScorer(cfg),
		NewSynthesizer(index, cfg, logger),
		NewEscalationManager(tickets, logger),
		generator,
		chatLog,
		cfg,
		logger,
	)
	return engineDeps{engine: engine, generator: generator, tickets: tickets, chatLog: chatLog}
}

func TestEngine_AnswersFromKnowledgeBase(t *testing.T) {
	deps := newTestEngine(t, resumeArticle(), billingArticle())

	resp, err := deps.engine.HandleChat(context.Background(), dto.ChatRequest{
		Message:   "How is my resume score calculated?",
		SessionID: "sess-1",
		Context:   dto.UserContext{UserID: "u-1", Role: string(models.RoleMember)},
	})
	require.NoError(t, err)

	assert.Equal(t, string(ConfidenceHigh), resp.ConfidenceLabel)
	assert.Contains(t, resp.Answer, "Here is how your score works.")
	require.Len(t, resp.Provenance, 1)
	assert.Equal(t, resumeArticleID.String(), resp.Provenance[0].ArticleID)
	assert.True(t, resp.UIActions.ShowFullArticle)
	assert.False(t, resp.UIActions.TalkToHuman)

	require.NotNil(t, resp.Meta)
	assert.Equal(t, "test-model", resp.Meta.Model)
	assert.Greater(t, resp.Meta.PassageCount, 0)

	assert.Empty(t, deps.tickets.tickets)
	require.Len(t, deps.chatLog.entries, 1)
	assert.False(t, deps.chatLog.entries[0].Escalated)
}

func TestEngine_EmptyKnowledgeBaseFallsBack(t *testing.T) {
	deps := newTestEngine(t)

	resp, err := deps.engine.HandleChat(context.Background(), dto.ChatRequest{
		Message:   "How is my resume score calculated?",
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	assert.Equal(t, fallbackAnswer, resp.Answer)
	assert.Equal(t, string(ConfidenceLow), resp.ConfidenceLabel)
	assert.Empty(t, resp.Provenance)
	assert.True(t, resp.UIActions.TalkToHuman)
	assert.Zero(t, deps.generator.calls)
	assert.Empty(t, resp.Meta.Model)

	// Low confidence without consent offers the handoff but files nothing.
	assert.Empty(t, deps.tickets.tickets)
}

func TestEngine_ExplicitHumanRequestCreatesTicket(t *testing.T) {
	deps := newTestEngine(t, resumeArticle())

	message := "I want to talk to a human about my resume score"
	resp, err := deps.engine.HandleChat(context.Background(), dto.ChatRequest{
		Message:   message,
		SessionID: "sess-1",
		Context: dto.UserContext{
			UserID:       "u-1",
			LastMessages: []string{message}, // second time asking this session
			Consent:      true,
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.UIActions.TalkToHuman)
	require.Len(t, deps.tickets.tickets, 1)

	ticket := deps.tickets.tickets[0]
	assert.Equal(t, "sess-1", ticket.SessionID)
	assert.Equal(t, "User explicitly asked for a human agent", ticket.Reason)
	require.Len(t, ticket.Transcript, 3)
	assert.Equal(t, "user", ticket.Transcript[0].Role)
	assert.Equal(t, message, ticket.Transcript[0].Content)
	assert.Equal(t, "user", ticket.Transcript[1].Role)
	assert.Equal(t, message, ticket.Transcript[1].Content)
	assert.Equal(t, "assistant", ticket.Transcript[2].Role)
	assert.Equal(t, resp.Answer, ticket.Transcript[2].Content)

	require.Len(t, deps.chatLog.entries, 1)
	assert.True(t, deps.chatLog.entries[0].Escalated)
}

func TestEngine_GenerationFailureFallsBackLow(t *testing.T) {
	deps := newTestEngine(t, resumeArticle())
	deps.generator.err = errors.New("upstream timeout")

	resp, err := deps.engine.HandleChat(context.Background(), dto.ChatRequest{
		Message:   "How is my resume score calculated?",
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	// Generation failure is recovered into the low-confidence fallback,
	// never surfaced as an error or a partially composed answer.
	assert.Equal(t, string(ConfidenceLow), resp.ConfidenceLabel)
	assert.Equal(t, fallbackAnswer, resp.Answer)
	assert.Empty(t, resp.Provenance)
	assert.True(t, resp.UIActions.TalkToHuman)
	assert.Empty(t, resp.Meta.Model)

	// Without consent the handoff is offered, not ticketed.
	assert.Empty(t, deps.tickets.tickets)
	require.Len(t, deps.chatLog.entries, 1)
	assert.False(t, deps.chatLog.entries[0].Escalated)
}

func TestEngine_GeneratorSeesOnlyCitedPassages(t *testing.T) {
	deps := newTestEngine(t, resumeArticle(), exportArticle())

	resp, err := deps.engine.HandleChat(context.Background(), dto.ChatRequest{
		Message:   "How is my resume score calculated?",
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	// Both articles clear the relevance floor, but only the dominant one is
	// cited; the generator must have been prompted with exactly that one.
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.PassageCount)
	require.Len(t, resp.Provenance, 1)
	require.Len(t, deps.generator.passages, 1)
	assert.Equal(t, resp.Provenance[0].ArticleID, deps.generator.passages[0].ArticleID)
}

func TestEngine_RejectsEmptyMessage(t *testing.T) {
	deps := newTestEngine(t, resumeArticle())

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := deps.engine.HandleChat(context.Background(), dto.ChatRequest{Message: msg})
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Empty(t, deps.chatLog.entries)
}

func TestEngine_ChatLogStoresRedactedText(t *testing.T) {
	deps := newTestEngine(t, resumeArticle())

	_, err := deps.engine.HandleChat(context.Background(), dto.ChatRequest{
		Message:   "My email is bob@example.com, how is my resume score calculated?",
		SessionID: "sess-1",
		Context:   dto.UserContext{UserID: "u-1"},
	})
	require.NoError(t, err)

	require.Len(t, deps.chatLog.entries, 1)
	entry := deps.chatLog.entries[0]
	assert.NotContains(t, entry.Message, "bob@example.com")
	assert.Contains(t, entry.Message, "[REDACTED_EMAIL_1]")
	assert.Equal(t, "sess-1", entry.SessionID)
	assert.Equal(t, "u-1", entry.UserID)
}

func TestEngine_RepeatedMediumQuestionEscalates(t *testing.T) {
	deps := newTestEngine(t, resumeArticle())
	deps.generator.certainty = 0 // keeps confidence at Medium

	resp, err := deps.engine.HandleChat(context.Background(), dto.ChatRequest{
		Message:   "How is my resume score calculated?",
		SessionID: "sess-1",
		Context: dto.UserContext{
			UserID:       "u-1",
			LastMessages: []string{"resume score calculated how?"},
			Consent:      true,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, string(ConfidenceMedium), resp.ConfidenceLabel)
	assert.True(t, resp.UIActions.TalkToHuman)
	require.Len(t, deps.tickets.tickets, 1)
	assert.Equal(t, "Repeated question with medium confidence", deps.tickets.tickets[0].Reason)
}
