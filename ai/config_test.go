package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AnalystHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.AnalystModel)
	assert.Equal(t, 0.3, cfg.Temperature)
	assert.Equal(t, 4000, cfg.MaxTokens)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.AnalystHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.AnalystHost)
	})

	t.Run("with azure settings", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderAzure),
			WithAnalystHost("https://res.openai.azure.com/"),
			WithEmbeddingHost("https://res.openai.azure.com"),
			WithAPIKey("secret"),
			WithAPIVersion("2024-10-21"),
			WithAnalystModel("gpt-4o"),
			WithEmbeddingModel("embed-deploy"),
			WithTemperature(0.1),
			WithMaxTokens(2000),
		)

		require.NoError(t, cfg.Validate())
		assert.Equal(t, "https://res.openai.azure.com", cfg.AnalystHost)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, "gpt-4o", cfg.AnalystModel)
		assert.Equal(t, "embed-deploy", cfg.EmbeddingModel)
		assert.Equal(t, 0.1, cfg.Temperature)
		assert.Equal(t, 2000, cfg.MaxTokens)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name              string
		provider          ProviderKind
		embeddingHost     string
		analystHost       string
		expectedEmbedding string
		expectedAnalyst   string
	}{
		{
			name:              "already has /v1",
			embeddingHost:     "http://localhost:11434/v1",
			analystHost:       "http://localhost:11434/v1",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedAnalyst:   "http://localhost:11434/v1",
		},
		{
			name:              "missing /v1",
			embeddingHost:     "http://localhost:11434",
			analystHost:       "http://localhost:11434",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedAnalyst:   "http://localhost:11434/v1",
		},
		{
			name:              "has trailing slash",
			embeddingHost:     "http://localhost:11434/",
			analystHost:       "http://localhost:11434/",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedAnalyst:   "http://localhost:11434/v1",
		},
		{
			name:              "empty hosts",
			expectedEmbedding: "",
			expectedAnalyst:   "",
		},
		{
			name:              "azure endpoints untouched apart from slash",
			provider:          ProviderAzure,
			embeddingHost:     "https://res.openai.azure.com/",
			analystHost:       "https://res.openai.azure.com",
			expectedEmbedding: "https://res.openai.azure.com",
			expectedAnalyst:   "https://res.openai.azure.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Provider:      tt.provider,
				EmbeddingHost: tt.embeddingHost,
				AnalystHost:   tt.analystHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedAnalyst, cfg.AnalystHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:  "http://localhost:11434",
			AnalystHost:    "http://localhost:11434",
			EmbeddingModel: "text-embedding-3-small",
			AnalystModel:   "gpt-4o-mini",
			Temperature:    0.3,
			MaxTokens:      4000,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()

		err := cfg.Validate()
		assert.NoError(t, err)

		// Should also normalize
		assert.Equal(t, ProviderOpenAI, cfg.Provider)
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.AnalystHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing analyst host", func(c *Config) { c.AnalystHost = "" }, "AnalystHost"},
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing analyst model", func(c *Config) { c.AnalystModel = "" }, "AnalystModel"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "Temperature"},
		{"max tokens zero", func(c *Config) { c.MaxTokens = 0 }, "MaxTokens"},
		{"unknown provider", func(c *Config) { c.Provider = "watson" }, "unknown provider"},
		{"gemini without key", func(c *Config) { c.Provider = ProviderGemini }, "APIKey"},
		{"azure without version", func(c *Config) { c.Provider = ProviderAzure }, "APIVersion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("gemini needs no hosts", func(t *testing.T) {
		cfg := valid()
		cfg.Provider = ProviderGemini
		cfg.APIKey = "key"
		cfg.AnalystHost = ""
		cfg.EmbeddingHost = ""

		assert.NoError(t, cfg.Validate())
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	cfg := NewConfig()
	err := cfg.Validate()
	require.NoError(t, err)

	cfg = DefaultConfig()
	err = cfg.Validate()
	require.NoError(t, err)
}
