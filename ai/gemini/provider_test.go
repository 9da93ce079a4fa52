package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderRejectsOtherKinds(t *testing.T) {
	_, err := NewProvider(context.Background(), ai.NewConfig())
	assert.Error(t, err)
}

func TestNewProviderRequiresKey(t *testing.T) {
	cfg := ai.NewConfig(ai.WithProvider(ai.ProviderGemini), ai.WithAPIKey(""))
	_, err := NewProvider(context.Background(), cfg)
	assert.Error(t, err)
}

func TestAnalysisSchema(t *testing.T) {
	s := analysisSchema()

	require.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"summary", "key_topics", "document_type", "published_date"}, s.Required)
	assert.Equal(t, genai.TypeArray, s.Properties["key_topics"].Type)
	assert.Len(t, s.Properties["document_type"].Enum, len(core.DocumentTypes))
	assert.Contains(t, s.Properties["document_type"].Enum, "Technical")
}
