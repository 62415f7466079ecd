package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"kinto/internal/dto"
	"kinto/internal/models"
	"kinto/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidInput rejects an empty or non-textual message before the
// pipeline runs. It is the only error HandleChat ever returns; everything
// downstream degrades into the response instead.
var ErrInvalidInput = errors.New("message must be non-empty text")

// ChatLogSink accepts append-only chat log writes. The engine never reads
// entries back within a request.
type ChatLogSink interface {
	Append(ctx context.Context, entry *models.ChatLogEntry) error
}

var humanRequestPattern = regexp.MustCompile(
	`(?i)\b(talk|speak|chat)\s+(to|with)\s+(a\s+|an\s+)?(human|person|agent|representative)\b|\breal\s+(human|person)\b`)

// Engine runs the full chat pipeline: redact, retrieve, generate, score,
// synthesize, escalate, log. It is a long-lived singleton shared across
// concurrent requests; per-request data only ever flows through arguments
// and return values, never instance fields.
type Engine struct {
	redactor    *Redactor
	index       *KnowledgeIndex
	retriever   *Retriever
	scorer      *ConfidenceScorer
	synthesizer *Synthesizer
	escalation  *EscalationManager
	generator   Generator
	chatLog     ChatLogSink
	cfg         *config.EngineConfig
	logger      *zap.Logger
}

func NewEngine(
	redactor *Redactor,
	index *KnowledgeIndex,
	retriever *Retriever,
	scorer *ConfidenceScorer,
	synthesizer *Synthesizer,
	escalation *EscalationManager,
	generator Generator,
	chatLog ChatLogSink,
	cfg *config.EngineConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		redactor:    redactor,
		index:       index,
		retriever:   retriever,
		scorer:      scorer,
		synthesizer: synthesizer,
		escalation:  escalation,
		generator:   generator,
		chatLog:     chatLog,
		cfg:         cfg,
		logger:      logger,
	}
}

// HandleChat processes one chat turn end to end. Apart from ErrInvalidInput,
// the caller always receives a well-formed response: internal failures show
// up as degraded confidence with talk_to_human set, never as an error.
func (e *Engine) HandleChat(ctx context.Context, req dto.ChatRequest) (dto.KintoResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return dto.KintoResponse{}, ErrInvalidInput
	}
	started := time.Now()

	redaction := e.redactor.Redact(req.Message)
	query := redaction.RedactedText

	explicitRequest := humanRequestPattern.MatchString(query)
	repeated := repeatedQuestion(query, req.Context.LastMessages)

	results := e.retriever.Retrieve(query, req.Context, e.cfg.TopK)
	sources := e.synthesizer.SelectSources(results)

	var generated string
	var certainty float64
	generationFailed := false
	if len(sources) > 0 {
		// The generator only sees the sources the answer will cite.
		text, c, err := e.generator.Generate(ctx, query, sources)
		if err != nil {
			e.logger.Warn("Generation degraded",
				zap.String("session_id", req.SessionID),
				zap.Error(err),
			)
			generationFailed = true
		} else {
			generated, certainty = text, c
		}
	}

	factors := ConfidenceFactors{
		RetrievalScore:  RetrievalScore(results),
		PassageCoverage: PassageCoverage(query, results),
		ModelCertainty:  certainty,
	}
	if len(results) > 0 {
		factors.RecencyFactor = RecencyFactor(results[0].LastUpdated, e.cfg.RecencyHalfLife, time.Now())
		factors.SourceTrust = SourceTrust(results[0].Category)
	}
	score, label := e.scorer.Score(factors)
	if generationFailed {
		// A generation timeout or failure reads as low confidence to the
		// caller: the fallback answer with the human handoff offered, never
		// a partial composition or a raw error.
		label = ConfidenceLow
	}

	resp := e.synthesizer.Synthesize(query, req.Context, sources, score, label, generated)

	escalated := false
	if e.escalation.ShouldEscalate(label, repeated, explicitRequest) {
		resp.UIActions.TalkToHuman = true
		transcript := e.buildTranscript(req, query, resp.Answer)
		outcome := e.escalation.Escalate(ctx, req.SessionID, req.Context, transcript,
			score, resp.Provenance, escalationReason(label, repeated, explicitRequest, score))
		escalated = outcome == EscalationTicketCreated
	}

	resp.Meta = &dto.ResponseMeta{
		PassageCount: len(results),
		LatencyMs:    time.Since(started).Milliseconds(),
	}
	if generated != "" {
		resp.Meta.Model = e.generator.Model()
	}

	e.appendChatLog(ctx, req, query, resp, escalated)
	return resp, nil
}

// buildTranscript reconstructs the session's turns for the handoff ticket.
// Prior messages come redacted as well: the ticket outlives the request and
// must never carry raw PII.
func (e *Engine) buildTranscript(req dto.ChatRequest, redactedCurrent, answer string) []models.TranscriptTurn {
	transcript := make([]models.TranscriptTurn, 0, len(req.Context.LastMessages)+2)
	for _, msg := range req.Context.LastMessages {
		transcript = append(transcript, models.TranscriptTurn{
			Role:    "user",
			Content: e.redactor.Redact(msg).RedactedText,
		})
	}
	transcript = append(transcript,
		models.TranscriptTurn{Role: "user", Content: redactedCurrent},
		models.TranscriptTurn{Role: "assistant", Content: answer},
	)
	return transcript
}

func (e *Engine) appendChatLog(ctx context.Context, req dto.ChatRequest, redacted string, resp dto.KintoResponse, escalated bool) {
	entry := &models.ChatLogEntry{
		ID:         uuid.New(),
		SessionID:  req.SessionID,
		UserID:     req.Context.UserID,
		Message:    redacted,
		Answer:     resp.Answer,
		Confidence: resp.Confidence,
		Escalated:  escalated,
		CreatedAt:  time.Now(),
	}
	if err := e.chatLog.Append(ctx, entry); err != nil {
		e.logger.Error("Chat log append failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
	}
}

func escalationReason(label ConfidenceLabel, repeated, explicit bool, score float64) string {
	switch {
	case explicit:
		return "User explicitly asked for a human agent"
	case label == ConfidenceLow:
		return fmt.Sprintf("Low answer confidence (%.2f)", score)
	default:
		return "Repeated question with medium confidence"
	}
}

// repeatedQuestion reports whether the same canonical intent was already
// asked this session, so the current turn makes at least the second time.
func repeatedQuestion(query string, lastMessages []string) bool {
	current := normalizeIntent(query)
	if current == "" {
		return false
	}
	for _, msg := range lastMessages {
		if normalizeIntent(msg) == current {
			return true
		}
	}
	return false
}

func normalizeIntent(text string) string {
	tokens := Tokenize(text)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
