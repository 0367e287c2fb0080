package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
	"github.com/kailas-cloud/markdex/internal/usecase/summary"
)

// DefaultSummaryModel is used when SummarizerConfig.Model is empty.
const DefaultSummaryModel = openai.GPT4oMini

// Summarizer writes bookmark summaries with a chat completion model.
type Summarizer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// SummarizerConfig holds the chat provider settings.
type SummarizerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewSummarizer creates an OpenAI-compatible summarizer.
func NewSummarizer(cfg *SummarizerConfig) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultSummaryModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{client: openai.NewClientWithConfig(clientCfg), model: model, logger: logger}
}

// Summarize implements domain.Summarizer. A NONE or blank reply is absent.
func (s *Summarizer) Summarize(
	ctx context.Context, query string, results []result.Ranked, maxResults int,
) (string, bool, error) {
	if len(results) == 0 {
		return "", false, nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.2,
		MaxTokens:   256,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summary.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: summary.BuildPrompt(query, results, maxResults)},
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, fmt.Errorf("chat completion: %w: %w", domain.ErrSummarizerUnavailable, ctxErr)
		}
		return "", false, wrapAPIError("chat", err, domain.ErrSummarizerUnavailable)
	}
	if len(resp.Choices) == 0 {
		return "", false, fmt.Errorf("empty chat response: %w", domain.ErrSummarizerUnavailable)
	}

	text, ok := summary.ParseReply(resp.Choices[0].Message.Content)
	s.logger.Debug("Summary generated", zap.String("model", s.model), zap.Bool("present", ok),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return text, ok, nil
}
