package service

import (
	"context"
	"fmt"
	"strings"

	"kinto/pkg/config"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Generator is the generation collaborator consumed by the engine. It may
// fail or time out; the engine owns the fallback policy.
type Generator interface {
	Generate(ctx context.Context, query string, passages []RetrievalResult) (text string, certainty float64, err error)
	Model() string
}

// GenerationService calls a chat-completion model over the retrieved
// passages. It only ever sees redacted text.
type GenerationService struct {
	client *openai.Client
	cfg    *config.OpenAIConfig
	logger *zap.Logger
}

func NewGenerationService(cfg *config.OpenAIConfig, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
		logger: logger,
	}
}

const systemInstruction = `You are Kinto, a career support assistant. Answer the user's question using only the knowledge base passages provided. Be concise and practical. If the passages do not cover the question, say so plainly and suggest contacting support instead of guessing.`

func (s *GenerationService) Generate(ctx context.Context, query string, passages []RetrievalResult) (string, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(query, passages)},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return "", 0, fmt.Errorf("generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("generation returned no choices")
	}

	choice := resp.Choices[0]
	return choice.Message.Content, certaintyFromFinish(choice.FinishReason), nil
}

func (s *GenerationService) Model() string {
	return s.cfg.Model
}

func buildPrompt(query string, passages []RetrievalResult) string {
	var b strings.Builder
	b.WriteString("Knowledge base passages:\n\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, p.Title, p.Excerpt)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

// certaintyFromFinish maps what the API exposes onto a [0,1] certainty. A
// clean stop is trusted; a truncated or filtered completion is not.
func certaintyFromFinish(reason openai.FinishReason) float64 {
	switch reason {
	case openai.FinishReasonStop:
		return 0.9
	case openai.FinishReasonLength:
		return 0.5
	default:
		return 0.3
	}
}
