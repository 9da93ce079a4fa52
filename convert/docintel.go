package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultDocIntelAPIVersion is the Document Intelligence REST API version.
	DefaultDocIntelAPIVersion = "2024-11-30"

	layoutModel         = "prebuilt-layout"
	defaultPollInterval = time.Second
	defaultPollTimeout  = 10 * time.Minute
)

// DocIntelConfig configures the Document Intelligence client.
type DocIntelConfig struct {
	Endpoint     string
	APIKey       string
	APIVersion   string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// DocumentIntelligence converts documents with the layout model, requesting
// markdown output.
type DocumentIntelligence struct {
	analyzeURL   string
	apiKey       string
	pollInterval time.Duration
	pollTimeout  time.Duration
	http         *http.Client
	logger       *slog.Logger
}

// NewDocumentIntelligence creates a Document Intelligence converter.
func NewDocumentIntelligence(cfg DocIntelConfig) (*DocumentIntelligence, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, errors.New("document intelligence: endpoint and api key are required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultDocIntelAPIVersion
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}

	return &DocumentIntelligence{
		analyzeURL: fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s&outputContentFormat=markdown",
			strings.TrimRight(cfg.Endpoint, "/"), layoutModel, cfg.APIVersion),
		apiKey:       cfg.APIKey,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
		http:         &http.Client{Timeout: 2 * time.Minute},
		logger:       slog.Default().With("component", "document-intelligence"),
	}, nil
}

type analyzeOperation struct {
	Status        string `json:"status"`
	AnalyzeResult *struct {
		Content string `json:"content"`
	} `json:"analyzeResult"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Convert submits raw for analysis and polls until the operation finishes.
func (d *DocumentIntelligence) Convert(ctx context.Context, raw []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.pollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.analyzeURL, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", d.apiKey)

	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrServiceFailure, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("%w: analyze returned %s", ErrServiceFailure, resp.Status)
	}
	location := resp.Header.Get("Operation-Location")
	if location == "" {
		return "", fmt.Errorf("%w: missing Operation-Location header", ErrServiceFailure)
	}
	d.logger.Info("analysis submitted", "bytes", len(raw))

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		op, err := d.poll(ctx, location)
		if err != nil {
			return "", err
		}
		switch strings.ToLower(op.Status) {
		case "succeeded":
			if op.AnalyzeResult == nil || strings.TrimSpace(op.AnalyzeResult.Content) == "" {
				return "", ErrEmptyResult
			}
			d.logger.Info("analysis complete", "chars", len(op.AnalyzeResult.Content))
			return op.AnalyzeResult.Content, nil
		case "failed", "canceled":
			msg := op.Status
			if op.Error != nil {
				msg = op.Error.Code + ": " + op.Error.Message
			}
			return "", fmt.Errorf("%w: %s", ErrServiceFailure, msg)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrServiceFailure, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (d *DocumentIntelligence) poll(ctx context.Context, location string) (*analyzeOperation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", d.apiKey)

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: poll returned %s: %s", ErrServiceFailure, resp.Status, strings.TrimSpace(string(detail)))
	}

	var op analyzeOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("%w: decode operation: %w", ErrServiceFailure, err)
	}
	return &op, nil
}
