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


package openai

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/folio/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements ai.AIProvider using OpenAI-compatible or Azure OpenAI services.
// It manages embedder and analyst instances.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	analyst  *Analyst
	logger   *slog.Logger
}

// NewProvider creates a new AI provider backed by an OpenAI-compatible or
// Azure OpenAI endpoint. The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderOpenAI && config.Provider != ai.ProviderAzure {
		return nil, fmt.Errorf("openai provider cannot serve %q", config.Provider)
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	analyst, err := newAnalyst(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		analyst:  analyst,
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Analyst returns the document analysis service.
func (p *Provider) Analyst() ai.Analyst {
	return p.analyst
}

// Close releases resources held by the provider.
// Currently a no-op as langchaingo clients don't require cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

// clientOptions builds langchaingo options for one endpoint. Azure resources
// address models by deployment name and need the API type and version set.
func clientOptions(config *ai.Config, host string) []openai.Option {
	opts := []openai.Option{
		openai.WithBaseURL(host),
		openai.WithToken(config.APIKey),
	}
	if config.Provider == ai.ProviderAzure {
		opts = append(opts,
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithAPIVersion(config.APIVersion),
		)
	}
	return opts
}
