package convert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConverter struct {
	contentType string
}

func (r *recordingConverter) Convert(ctx context.Context, raw []byte, contentType string) (string, error) {
	r.contentType = contentType
	return "converted", nil
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectContentType([]byte("%PDF-1.7\n"), ""))
	assert.Equal(t, "text/plain", DetectContentType([]byte("hello"), ""))
	assert.Equal(t, "text/markdown", DetectContentType(nil, "text/markdown; charset=utf-8"))
}

func TestRouter(t *testing.T) {
	next := &recordingConverter{}
	router := NewRouter(next)
	ctx := context.Background()

	out, err := router.Convert(ctx, []byte("page one\fpage two"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "page one\n<!-- PageBreak -->\npage two", out)
	assert.Empty(t, next.contentType)

	out, err = router.Convert(ctx, []byte("%PDF-1.7\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "converted", out)
	assert.Equal(t, "application/pdf", next.contentType)

	_, err = router.Convert(ctx, []byte("   "), "text/markdown")
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = NewRouter(nil).Convert(ctx, []byte("%PDF-1.7\n"), "")
	assert.ErrorIs(t, err, ErrUnsupportedContent)
}

func TestWithPageBreaks(t *testing.T) {
	assert.Equal(t, "a\n<!-- PageBreak -->\nb", withPageBreaks("a\fb\f"))
	assert.Equal(t, "no breaks", withPageBreaks("no breaks"))
}

func TestDocumentIntelligence(t *testing.T) {
	var polls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/documentintelligence/documentModels/prebuilt-layout:analyze", r.URL.Path)
			assert.Equal(t, "markdown", r.URL.Query().Get("outputContentFormat"))
			w.Header().Set("Operation-Location", srv.URL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
		case http.MethodGet:
			op := map[string]any{"status": "running"}
			if polls.Add(1) > 1 {
				op = map[string]any{
					"status":        "succeeded",
					"analyzeResult": map[string]any{"content": "# Doc\n<!-- PageBreak -->\nPage 2"},
				}
			}
			_ = json.NewEncoder(w).Encode(op)
		}
	}))
	defer srv.Close()

	di, err := NewDocumentIntelligence(DocIntelConfig{Endpoint: srv.URL, APIKey: "key", PollInterval: time.Millisecond})
	require.NoError(t, err)

	out, err := di.Convert(context.Background(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "# Doc\n<!-- PageBreak -->\nPage 2", out)
	assert.Equal(t, int32(2), polls.Load())
}

func TestDocumentIntelligenceFailures(t *testing.T) {
	t.Run("rejected submission", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		di, err := NewDocumentIntelligence(DocIntelConfig{Endpoint: srv.URL, APIKey: "bad"})
		require.NoError(t, err)
		_, err = di.Convert(context.Background(), []byte("x"), "")
		assert.ErrorIs(t, err, ErrServiceFailure)
	})

	t.Run("failed operation", func(t *testing.T) {
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				w.Header().Set("Operation-Location", srv.URL+"/operations/1")
				w.WriteHeader(http.StatusAccepted)
				return
			}
			_, _ = w.Write([]byte(`{"status":"failed","error":{"code":"InvalidContent","message":"corrupt file"}}`))
		}))
		defer srv.Close()

		di, err := NewDocumentIntelligence(DocIntelConfig{Endpoint: srv.URL, APIKey: "key", PollInterval: time.Millisecond})
		require.NoError(t, err)
		_, err = di.Convert(context.Background(), []byte("x"), "")
		assert.ErrorIs(t, err, ErrServiceFailure)
		assert.Contains(t, err.Error(), "corrupt file")
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := NewDocumentIntelligence(DocIntelConfig{Endpoint: "https://x"})
		assert.Error(t, err)
	})
}
