package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/folio/ai/mock"
	"github.com/poiesic/folio/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedPages(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 8
	pages := []*core.PageRecord{
		{DocumentID: "doc_a_chunk_1", MarkdownContent: "one"},
		{DocumentID: "doc_a_chunk_2", MarkdownContent: "two"},
	}

	err := EmbedPages(context.Background(), embedder, pages, 2, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.CallCount())
	for _, p := range pages {
		require.Len(t, p.Vector, 8)
		var magnitude float32
		for _, v := range p.Vector {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 0.01)
	}
}

func TestEmbedPagesRetriesThenFails(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("throttled")
	}
	pages := []*core.PageRecord{{MarkdownContent: "one"}}

	err := EmbedPages(context.Background(), embedder, pages, 3, time.Millisecond)
	assert.EqualError(t, err, "throttled")
	assert.Equal(t, 3, embedder.CallCount())
	assert.Nil(t, pages[0].Vector)
}

func TestEmbedPagesMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}
	pages := []*core.PageRecord{{MarkdownContent: "one"}, {MarkdownContent: "two"}}

	err := EmbedPages(context.Background(), embedder, pages, 1, time.Millisecond)
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)
}

func TestEmbedPagesRequiresEmbedder(t *testing.T) {
	err := EmbedPages(context.Background(), nil, nil, 1, 0)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
