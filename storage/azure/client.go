// Package azure implements storage.IndexClient against the Azure AI Search
// documents REST API using the mergeOrUpload action.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
)

const (
	// DefaultAPIVersion is the search REST API version used when none is configured.
	DefaultAPIVersion = "2024-07-01"

	defaultTimeout = 60 * time.Second
	actionField    = "@search.action"
	mergeOrUpload  = "mergeOrUpload"
)

// Config identifies the search service and index.
type Config struct {
	Endpoint   string
	IndexName  string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
}

// Client implements storage.IndexClient.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

var _ storage.IndexClient = (*Client)(nil)

func newClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.IndexName == "" || cfg.APIKey == "" {
		return nil, errors.New("azure search: endpoint, index name and api key are required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/docs/index?api-version=%s",
		strings.TrimRight(cfg.Endpoint, "/"),
		url.PathEscape(cfg.IndexName),
		url.QueryEscape(cfg.APIVersion))

	return &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   slog.Default().With("component", "azure-search"),
	}, nil
}

// NewClient creates a search index client.
//
// Returns storage.IndexClient interface to enforce abstraction.
func NewClient(cfg Config) (storage.IndexClient, error) {
	return newClient(cfg)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type indexResponse struct {
	Value []struct {
		Key          string  `json:"key"`
		Status       bool    `json:"status"`
		StatusCode   int     `json:"statusCode"`
		ErrorMessage *string `json:"errorMessage"`
	} `json:"value"`
}

// MergeOrUpload sends all documents in one request. Both 200 and 207 carry
// per-document results; any other status fails the request.
func (c *Client) MergeOrUpload(ctx context.Context, docs []core.SearchDocument) ([]storage.IndexResult, error) {
	actions := make([]map[string]any, len(docs))
	for i, doc := range docs {
		action := make(map[string]any, len(doc)+1)
		for k, v := range doc {
			action[k] = v
		}
		action[actionField] = mergeOrUpload
		actions[i] = action
	}

	body, err := json.Marshal(map[string]any{"value": actions})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("index request failed", "docs", len(docs), "err", err)
		return nil, fmt.Errorf("%w: %w", storage.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("index request rejected", "status", resp.StatusCode, "docs", len(docs))
		return nil, fmt.Errorf("%w: %s: %s", storage.ErrRequestFailed, resp.Status, strings.TrimSpace(string(detail)))
	}

	var out indexResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", storage.ErrRequestFailed, err)
	}

	results := make([]storage.IndexResult, len(out.Value))
	for i, v := range out.Value {
		results[i] = storage.IndexResult{
			Key:          v.Key,
			Succeeded:    v.Status,
			StatusCode:   storage.Status(v.StatusCode),
			ErrorMessage: v.ErrorMessage,
		}
	}
	return results, nil
}
