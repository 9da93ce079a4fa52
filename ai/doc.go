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


// Package ai provides abstractions for the language-model services used by Folio.
//
// This package defines interfaces for the two AI operations the ingestion
// pipeline needs: embedding page text and analysing whole documents. Domain
// packages depend on these abstractions rather than on a vendor SDK.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Analyst: Runs structured analysis and the map/reduce summary calls
//   - AIProvider: Aggregates AI services for convenient initialization
//
// Prompt text, the response schema and response decoding live here too so
// that every implementation asks the same questions and accepts the same
// answers.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible and Azure OpenAI endpoints via langchaingo
//   - ai/gemini: Google Gemini via the generative-ai-go SDK
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, gemini.NewProvider, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockAnalyst)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, Reset, etc.).
//
// # Usage Example
//
//	config := ai.NewConfig(
//	    ai.WithProvider(ai.ProviderAzure),
//	    ai.WithHost("https://myres.openai.azure.com"),
//	    ai.WithAPIKey(key),
//	    ai.WithAnalystModel("gpt-4o"),
//	)
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	analysis, err := provider.Analyst().AnalyzeDocument(ctx, markdown)
package ai
