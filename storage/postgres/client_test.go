package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/folio/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowArgs(t *testing.T) {
	doc := core.SearchDocument{
		"id":             "doc_1",
		"content":        "text",
		"vector":         []any{0.5, 0.25},
		"published_date": "2024-03-05T00:00:00Z",
	}

	args, err := rowArgs(doc)
	require.NoError(t, err)
	require.Len(t, args, 4)

	assert.Equal(t, "doc_1", args[0])

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(args[1].(string)), &body))
	assert.Equal(t, "text", body["content"])

	vec, ok := args[2].(pgvector.Vector)
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.25}, vec.Slice())

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), args[3])
}

func TestRowArgs_Optional(t *testing.T) {
	args, err := rowArgs(core.SearchDocument{"id": "doc_1", "published_date": nil})
	require.NoError(t, err)
	assert.Nil(t, args[2])
	assert.Nil(t, args[3])
}

func TestRowArgs_BadVector(t *testing.T) {
	_, err := rowArgs(core.SearchDocument{"id": "doc_1", "vector": []any{"x"}})
	assert.ErrorIs(t, err, core.ErrInvalidVector)

	_, err = rowArgs(core.SearchDocument{"id": "doc_1", "vector": "nope"})
	assert.ErrorIs(t, err, core.ErrInvalidVector)
}

func TestStatements(t *testing.T) {
	schema := schemaStatements("docs", 1536)
	require.Len(t, schema, 2)
	assert.Contains(t, schema[1], "vector(1536)")

	upsert := upsertStatement("docs")
	assert.True(t, strings.Contains(upsert, "ON CONFLICT (id)"))
	assert.Contains(t, upsert, "docs.body || EXCLUDED.body")
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)

	_, err = NewClient(context.Background(), Config{DatabaseURL: "postgres://x", Table: "bad;name"})
	assert.Error(t, err)
}
