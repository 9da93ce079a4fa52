// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Analyst,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	analysis, err := mockProvider.Analyst().AnalyzeDocument(ctx, "test")
//
//	// Custom behavior injection
//	analyst := mock.NewMockAnalyst()
//	analyst.ExtractKeyContentFunc = func(ctx context.Context, s string) (string, error) {
//	    return "", errors.New("rate limited")
//	}
//
//	// Check call counts
//	count := analyst.ExtractCallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockAnalyst: Summarises with the first sentence and reports a Report type
//   - MockProvider: Aggregates mock embedder and analyst
//
// All mocks are safe for concurrent use; call counters are atomic.
package mock
