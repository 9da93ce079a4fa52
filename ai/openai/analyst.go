package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/folio/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// decodeAttempts bounds retries when the model returns unparseable JSON.
const decodeAttempts = 3

// Analyst implements ai.Analyst using an OpenAI-compatible chat model.
type Analyst struct {
	client      llms.Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// newAnalyst creates a new analyst with the given configuration.
// Returns concrete type for internal use by Provider.
func newAnalyst(config *ai.Config) (*Analyst, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := append(clientOptions(config, config.AnalystHost),
		openai.WithModel(config.AnalystModel),
	)
	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}

	return &Analyst{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-analyst"),
	}, nil
}

// NewAnalyst creates a new analyst with the given configuration.
//
// Returns ai.Analyst interface to enforce abstraction.
func NewAnalyst(config *ai.Config) (ai.Analyst, error) {
	return newAnalyst(config)
}

// AnalyzeDocument asks the model for the structured analysis of content in
// JSON mode. Malformed JSON is retried; transport errors are not.
func (a *Analyst) AnalyzeDocument(ctx context.Context, content string) (*ai.Analysis, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(ai.AnalysisSystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(ai.AnalysisUserPrompt(content))},
		},
	}

	var lastErr error
	for attempt := 0; attempt < decodeAttempts; attempt++ {
		response, err := a.client.GenerateContent(ctx, messages,
			llms.WithTemperature(a.temperature),
			llms.WithMaxTokens(a.maxTokens),
			llms.WithJSONMode(),
		)
		if err != nil {
			a.logger.Error("failed to generate analysis", "attempt", attempt+1, "err", err)
			return nil, err
		}
		if len(response.Choices) < 1 {
			return nil, ai.ErrEmptyResponse
		}

		analysis, err := ai.DecodeAnalysis(response.Choices[0].Content)
		if err != nil {
			lastErr = err
			a.logger.Warn("error parsing analysis response", "attempt", attempt+1, "err", err)
			continue
		}

		a.logger.Debug("document analyzed",
			"topics", len(analysis.KeyTopics),
			"type", analysis.DocumentType)
		return analysis, nil
	}

	a.logger.Error("failed to parse analysis response after retries", "err", lastErr)
	return nil, lastErr
}

// ExtractKeyContent runs the map prompt over one section.
func (a *Analyst) ExtractKeyContent(ctx context.Context, section string) (string, error) {
	return a.complete(ctx, ai.MapPrompt(section))
}

// CombineExtracts runs the reduce prompt over the joined section extracts.
func (a *Analyst) CombineExtracts(ctx context.Context, extracts string) (string, error) {
	return a.complete(ctx, ai.ReducePrompt(extracts))
}

func (a *Analyst) complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	response, err := a.client.GenerateContent(ctx, messages,
		llms.WithTemperature(a.temperature),
		llms.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}
