package azure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOrUpload(t *testing.T) {
	var received struct {
		Value []map[string]any `json:"value"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/docs/docs/index", r.URL.Path)
		assert.Equal(t, DefaultAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write([]byte(`{"value":[
			{"key":"a","status":true,"errorMessage":null,"statusCode":201},
			{"key":"b","status":false,"errorMessage":"Invalid field","statusCode":400}
		]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL + "/", IndexName: "docs", APIKey: "secret"})
	require.NoError(t, err)
	defer client.Close()

	results, err := client.MergeOrUpload(context.Background(), []core.SearchDocument{
		{"id": "a", "title": "A"},
		{"id": "b"},
	})
	require.NoError(t, err)

	require.Len(t, received.Value, 2)
	assert.Equal(t, "mergeOrUpload", received.Value[0]["@search.action"])
	assert.Equal(t, "A", received.Value[0]["title"])

	require.Len(t, results, 2)
	assert.True(t, results[0].Succeeded)
	assert.Equal(t, 201, *results[0].StatusCode)
	assert.False(t, results[1].Succeeded)
	assert.Equal(t, "Invalid field", *results[1].ErrorMessage)
}

func TestMergeOrUpload_RequestRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"payload too large"}}`, http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL, IndexName: "docs", APIKey: "k"})
	require.NoError(t, err)

	_, err = client.MergeOrUpload(context.Background(), []core.SearchDocument{{"id": "a"}})
	assert.ErrorIs(t, err, storage.ErrRequestFailed)
	assert.Contains(t, err.Error(), "payload too large")
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "https://x.search.windows.net"})
	assert.Error(t, err)
}
