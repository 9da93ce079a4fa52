package ingestion

import (
	"testing"

	"github.com/poiesic/folio/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagesWithTokens(counts ...int) []*core.PageRecord {
	pages := make([]*core.PageRecord, len(counts))
	for i, c := range counts {
		pages[i] = &core.PageRecord{PageNumber: i + 1, TokenCount: c}
	}
	return pages
}

func batchIndexes(pages []*core.PageRecord) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p.BatchIndex
	}
	return out
}

func TestAssignBatches(t *testing.T) {
	tests := []struct {
		name      string
		tokens    []int
		maxTokens int
		maxItems  int
		expected  []int
	}{
		{
			name:      "all fit in one batch",
			tokens:    []int{10, 20, 30},
			maxTokens: 100,
			maxItems:  10,
			expected:  []int{0, 0, 0},
		},
		{
			name:      "token ceiling closes batch",
			tokens:    []int{40, 40, 40, 10},
			maxTokens: 100,
			maxItems:  10,
			expected:  []int{0, 0, 1, 1},
		},
		{
			name:      "exactly at ceiling stays",
			tokens:    []int{50, 50, 1},
			maxTokens: 100,
			maxItems:  10,
			expected:  []int{0, 0, 1},
		},
		{
			name:      "item ceiling closes batch",
			tokens:    []int{1, 1, 1, 1, 1},
			maxTokens: 100,
			maxItems:  2,
			expected:  []int{0, 0, 1, 1, 2},
		},
		{
			name:      "oversized first page starts at zero",
			tokens:    []int{500, 10},
			maxTokens: 100,
			maxItems:  10,
			expected:  []int{0, 1},
		},
		{
			name:      "oversized page alone in its batch",
			tokens:    []int{10, 500, 10},
			maxTokens: 100,
			maxItems:  10,
			expected:  []int{0, 1, 2},
		},
		{
			name:      "zero-token pages",
			tokens:    []int{0, 0, 0},
			maxTokens: 100,
			maxItems:  10,
			expected:  []int{0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := pagesWithTokens(tt.tokens...)
			AssignBatches(pages, tt.maxTokens, tt.maxItems)
			assert.Equal(t, tt.expected, batchIndexes(pages))
		})
	}
}

func TestAssignBatchesInvariants(t *testing.T) {
	tokens := make([]int, 300)
	for i := range tokens {
		tokens[i] = (i*37)%900 + 1
	}
	pages := pagesWithTokens(tokens...)

	AssignBatches(pages, DefaultMaxBatchTokens, DefaultMaxBatchItems)

	groups := GroupByBatch(pages)
	require.NotEmpty(t, groups)
	assert.Equal(t, 0, groups[0][0].BatchIndex)
	for i, group := range groups {
		assert.Equal(t, i, group[0].BatchIndex, "batch indexes are contiguous")
		sum := 0
		for _, p := range group {
			sum += p.TokenCount
		}
		if len(group) > 1 {
			assert.LessOrEqual(t, sum, DefaultMaxBatchTokens)
		}
		assert.LessOrEqual(t, len(group), DefaultMaxBatchItems)
	}
}

func TestAssignBatchesDefaults(t *testing.T) {
	pages := pagesWithTokens(DefaultMaxBatchTokens, 1)
	AssignBatches(pages, 0, 0)
	assert.Equal(t, []int{0, 1}, batchIndexes(pages))
}

func TestGroupByBatch(t *testing.T) {
	assert.Empty(t, GroupByBatch(nil))

	pages := pagesWithTokens(1, 1, 1)
	pages[2].BatchIndex = 1
	groups := GroupByBatch(pages)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 1)
}
