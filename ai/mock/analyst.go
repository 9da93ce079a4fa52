package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
)

// MockAnalyst is a test double for ai.Analyst.
// It allows custom behavior injection via function fields.
type MockAnalyst struct {
	// AnalyzeDocumentFunc is called by AnalyzeDocument if set.
	AnalyzeDocumentFunc func(ctx context.Context, content string) (*ai.Analysis, error)

	// ExtractKeyContentFunc is called by ExtractKeyContent if set.
	ExtractKeyContentFunc func(ctx context.Context, section string) (string, error)

	// CombineExtractsFunc is called by CombineExtracts if set.
	CombineExtractsFunc func(ctx context.Context, extracts string) (string, error)

	analyzeCalls atomic.Int32
	extractCalls atomic.Int32
	combineCalls atomic.Int32
}

// NewMockAnalyst creates a mock analyst with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockAnalyst() *MockAnalyst {
	return &MockAnalyst{}
}

// AnalyzeDocument returns a fixed analysis whose summary is the first line of content.
func (m *MockAnalyst) AnalyzeDocument(ctx context.Context, content string) (*ai.Analysis, error) {
	m.analyzeCalls.Add(1)

	if m.AnalyzeDocumentFunc != nil {
		return m.AnalyzeDocumentFunc(ctx, content)
	}

	first, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	return &ai.Analysis{
		Summary:       first,
		KeyTopics:     []string{"mock"},
		DocumentType:  core.DocumentTypeReport,
		PublishedDate: core.NoPublishedDate,
	}, nil
}

// ExtractKeyContent returns the first line of the section.
func (m *MockAnalyst) ExtractKeyContent(ctx context.Context, section string) (string, error) {
	m.extractCalls.Add(1)

	if m.ExtractKeyContentFunc != nil {
		return m.ExtractKeyContentFunc(ctx, section)
	}

	first, _, _ := strings.Cut(strings.TrimSpace(section), "\n")
	return first, nil
}

// CombineExtracts returns the extracts unchanged.
func (m *MockAnalyst) CombineExtracts(ctx context.Context, extracts string) (string, error) {
	m.combineCalls.Add(1)

	if m.CombineExtractsFunc != nil {
		return m.CombineExtractsFunc(ctx, extracts)
	}
	return extracts, nil
}

// AnalyzeCallCount returns how many times AnalyzeDocument was called.
func (m *MockAnalyst) AnalyzeCallCount() int { return int(m.analyzeCalls.Load()) }

// ExtractCallCount returns how many times ExtractKeyContent was called.
func (m *MockAnalyst) ExtractCallCount() int { return int(m.extractCalls.Load()) }

// CombineCallCount returns how many times CombineExtracts was called.
func (m *MockAnalyst) CombineCallCount() int { return int(m.combineCalls.Load()) }

// CallCount returns the total number of calls across all methods.
func (m *MockAnalyst) CallCount() int {
	return m.AnalyzeCallCount() + m.ExtractCallCount() + m.CombineCallCount()
}

// Reset clears call counts and injected behavior.
func (m *MockAnalyst) Reset() {
	m.analyzeCalls.Store(0)
	m.extractCalls.Store(0)
	m.combineCalls.Store(0)
	m.AnalyzeDocumentFunc = nil
	m.ExtractKeyContentFunc = nil
	m.CombineExtractsFunc = nil
}
