package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv"
)

// Docconv converts documents locally with docconv. Page boundaries are only
// known where the extracted text contains form feeds, which pdftotext emits.
type Docconv struct {
	readability bool
	logger      *slog.Logger
}

// NewDocconv creates a local converter. readability enables readability
// extraction for HTML input.
func NewDocconv(readability bool) *Docconv {
	return &Docconv{
		readability: readability,
		logger:      slog.Default().With("component", "docconv"),
	}
}

// Convert implements Converter.
func (d *Docconv) Convert(ctx context.Context, raw []byte, contentType string) (string, error) {
	mediaType := DetectContentType(raw, contentType)

	res, err := docconv.Convert(bytes.NewReader(raw), mediaType, d.readability)
	if err != nil {
		d.logger.Error("extraction failed", "contentType", mediaType, "err", err)
		return "", fmt.Errorf("%w: %s: %w", ErrUnsupportedContent, mediaType, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text := withPageBreaks(res.Body)
	if strings.TrimSpace(text) == "" {
		d.logger.Warn("extracted empty text", "contentType", mediaType)
		return "", ErrEmptyResult
	}
	return text, nil
}

// withPageBreaks replaces form feeds with page break markers.
func withPageBreaks(text string) string {
	text = strings.TrimRight(text, "\f\n ")
	return strings.ReplaceAll(text, "\f", "\n"+PageBreak+"\n")
}
