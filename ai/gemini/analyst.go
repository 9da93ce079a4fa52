package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
)

// Analyst implements ai.Analyst with a Gemini generative model.
type Analyst struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	logger      *slog.Logger
}

func newAnalyst(client *genai.Client, config *ai.Config) *Analyst {
	return &Analyst{
		client:      client,
		model:       config.AnalystModel,
		temperature: float32(config.Temperature),
		maxTokens:   int32(config.MaxTokens),
		logger:      slog.Default().With("component", "gemini-analyst"),
	}
}

// analysisSchema mirrors ai.AnalysisResponseSchema in Gemini's schema dialect.
func analysisSchema() *genai.Schema {
	types := make([]string, len(core.DocumentTypes))
	for i, dt := range core.DocumentTypes {
		types[i] = string(dt)
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":        {Type: genai.TypeString},
			"key_topics":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"document_type":  {Type: genai.TypeString, Enum: types},
			"published_date": {Type: genai.TypeString},
		},
		Required: []string{"summary", "key_topics", "document_type", "published_date"},
	}
}

func (a *Analyst) generativeModel() *genai.GenerativeModel {
	m := a.client.GenerativeModel(a.model)
	m.SetTemperature(a.temperature)
	m.SetMaxOutputTokens(a.maxTokens)
	return m
}

// AnalyzeDocument asks Gemini for the structured analysis of content.
func (a *Analyst) AnalyzeDocument(ctx context.Context, content string) (*ai.Analysis, error) {
	m := a.generativeModel()
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ai.AnalysisSystemPrompt())},
	}
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = analysisSchema()

	text, err := generate(ctx, m, ai.AnalysisUserPrompt(content))
	if err != nil {
		a.logger.Error("failed to generate analysis", "err", err)
		return nil, err
	}
	return ai.DecodeAnalysis(text)
}

// ExtractKeyContent runs the map prompt over one section.
func (a *Analyst) ExtractKeyContent(ctx context.Context, section string) (string, error) {
	return generate(ctx, a.generativeModel(), ai.MapPrompt(section))
}

// CombineExtracts runs the reduce prompt over the joined section extracts.
func (a *Analyst) CombineExtracts(ctx context.Context, extracts string) (string, error) {
	return generate(ctx, a.generativeModel(), ai.ReducePrompt(extracts))
}

func generate(ctx context.Context, m *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ai.ErrEmptyResponse
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String()), nil
}
