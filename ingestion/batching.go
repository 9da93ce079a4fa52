package ingestion

import "github.com/poiesic/folio/core"

const (
	// DefaultMaxBatchTokens bounds the tokens sent in one embedding request.
	DefaultMaxBatchTokens = 7500

	// DefaultMaxBatchItems bounds the inputs sent in one embedding request.
	DefaultMaxBatchItems = 2000
)

// AssignBatches sets BatchIndex on pages in order. A new batch starts when
// adding the next page would exceed maxTokens or the current batch already
// holds maxItems pages. A page larger than maxTokens gets a batch of its own.
// Indexes start at 0 and are contiguous.
func AssignBatches(pages []*core.PageRecord, maxTokens, maxItems int) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxBatchTokens
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxBatchItems
	}

	batch, batchTokens, batchItems := 0, 0, 0
	for _, p := range pages {
		if batchItems > 0 && (batchTokens+p.TokenCount > maxTokens || batchItems >= maxItems) {
			batch++
			batchTokens, batchItems = 0, 0
		}
		p.BatchIndex = batch
		batchTokens += p.TokenCount
		batchItems++
	}
}

// GroupByBatch returns pages grouped by BatchIndex, in batch order.
// Pages must already be in batch order, as AssignBatches leaves them.
func GroupByBatch(pages []*core.PageRecord) [][]*core.PageRecord {
	var groups [][]*core.PageRecord
	for i, p := range pages {
		if i == 0 || p.BatchIndex != pages[i-1].BatchIndex {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], p)
	}
	return groups
}
