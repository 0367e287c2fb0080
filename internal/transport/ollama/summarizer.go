// Package ollama summarizes search results with a local Ollama model.
package ollama

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
	"github.com/kailas-cloud/markdex/internal/usecase/summary"
)

// Defaults for a local Ollama server.
const (
	DefaultModel   = "mistral"
	DefaultBaseURL = "http://localhost:11434"
)

// Config holds the Ollama connection settings.
type Config struct {
	Model   string
	BaseURL string
	Logger  *zap.Logger
}

// Summarizer implements domain.Summarizer over any langchaingo model.
type Summarizer struct {
	llm    llms.Model
	model  string
	logger *zap.Logger
}

// NewSummarizer connects to an Ollama server.
func NewSummarizer(cfg Config) (*Summarizer, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	llm, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("init ollama: %w", err)
	}
	return newWithModel(llm, cfg.Model, cfg.Logger), nil
}

func newWithModel(llm llms.Model, model string, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{llm: llm, model: model, logger: logger}
}

// Summarize implements domain.Summarizer. A NONE or blank reply is absent.
func (s *Summarizer) Summarize(
	ctx context.Context, query string, results []result.Ranked, maxResults int,
) (string, bool, error) {
	if len(results) == 0 {
		return "", false, nil
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, summary.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, summary.BuildPrompt(query, results, maxResults)),
	}
	resp, err := s.llm.GenerateContent(ctx, content, llms.WithTemperature(0.2), llms.WithMaxTokens(256))
	if err != nil {
		return "", false, fmt.Errorf("generate summary: %w: %w", domain.ErrSummarizerUnavailable, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", false, fmt.Errorf("empty ollama response: %w", domain.ErrSummarizerUnavailable)
	}

	text, ok := summary.ParseReply(resp.Choices[0].Content)
	s.logger.Debug("Summary generated", zap.String("model", s.model), zap.Bool("present", ok))
	return text, ok, nil
}
