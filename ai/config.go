// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// ProviderKind selects the backing AI service.
type ProviderKind string

const (
	// ProviderOpenAI is any OpenAI-compatible endpoint (OpenAI, Ollama, vLLM, LocalAI).
	ProviderOpenAI ProviderKind = "openai"
	// ProviderAzure is an Azure OpenAI resource addressed by deployment name.
	ProviderAzure ProviderKind = "azure"
	// ProviderGemini is Google's Gemini API.
	ProviderGemini ProviderKind = "gemini"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Provider selects the implementation. Default: ProviderOpenAI.
	Provider ProviderKind

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// AnalystHost is the base URL for the chat model used for document analysis.
	// For Azure this is the resource endpoint, e.g. "https://myres.openai.azure.com".
	AnalystHost string

	// APIKey authenticates against the service. Local servers accept any value.
	APIKey string

	// APIVersion is the Azure OpenAI REST API version. Ignored by other providers.
	APIVersion string

	// EmbeddingModel is the model identifier (or Azure deployment) for text embeddings.
	// Example: "text-embedding-3-small"
	EmbeddingModel string

	// AnalystModel is the model identifier (or Azure deployment) for analysis.
	// Example: "gpt-4o-mini"
	AnalystModel string

	// Temperature controls sampling for analysis calls.
	// Default: 0.3
	Temperature float64

	// MaxTokens caps the length of each analysis completion.
	// Default: 4000
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider selects the provider implementation.
func WithProvider(kind ProviderKind) ConfigOption {
	return func(c *Config) {
		c.Provider = kind
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithAnalystHost sets the analysis service host URL.
func WithAnalystHost(host string) ConfigOption {
	return func(c *Config) {
		c.AnalystHost = host
	}
}

// WithHost sets both embedding and analyst hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.AnalystHost = host
	}
}

// WithAPIKey sets the service credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithAPIVersion sets the Azure OpenAI API version.
func WithAPIVersion(version string) ConfigOption {
	return func(c *Config) {
		c.APIVersion = version
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithAnalystModel sets the analysis model identifier.
func WithAnalystModel(model string) ConfigOption {
	return func(c *Config) {
		c.AnalystModel = model
	}
}

// WithTemperature sets the sampling temperature for analysis calls.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the completion length cap for analysis calls.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and analysis use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		Provider:       ProviderOpenAI,
		EmbeddingHost:  defaultHost,
		AnalystHost:    defaultHost,
		APIKey:         "none",
		APIVersion:     "2024-10-21",
		EmbeddingModel: "text-embedding-3-small",
		AnalystModel:   "gpt-4o-mini",
		Temperature:    0.3,
		MaxTokens:      4000,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithProvider(ProviderAzure),
//       WithAnalystHost("https://myres.openai.azure.com"),
//       WithAnalystModel("gpt-4o"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// For OpenAI-compatible providers it adds the /v1 suffix to hosts if missing,
// which is required by most local servers (Ollama, LocalAI, vLLM, etc).
// Azure endpoints are only stripped of a trailing slash.
func (c *Config) Normalize() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	switch c.Provider {
	case ProviderOpenAI:
		c.EmbeddingHost = withV1Suffix(c.EmbeddingHost)
		c.AnalystHost = withV1Suffix(c.AnalystHost)
	case ProviderAzure:
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.AnalystHost = strings.TrimSuffix(c.AnalystHost, "/")
	}
}

func withV1Suffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderOpenAI, ProviderAzure:
		if c.AnalystHost == "" {
			return errors.New("ai config: AnalystHost is required")
		}
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
	case ProviderGemini:
		if c.APIKey == "" || c.APIKey == "none" {
			return errors.New("ai config: APIKey is required for gemini")
		}
	default:
		return errors.New("ai config: unknown provider " + string(c.Provider))
	}
	if c.Provider == ProviderAzure && c.APIVersion == "" {
		return errors.New("ai config: APIVersion is required for azure")
	}
	if c.AnalystModel == "" {
		return errors.New("ai config: AnalystModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}
