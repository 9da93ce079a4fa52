package convert

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

// PageBreak is the page separator emitted by every converter.
const PageBreak = "<!-- PageBreak -->"

var (
	// ErrServiceFailure wraps errors reported by a remote conversion service.
	ErrServiceFailure = errors.New("conversion service failure")

	// ErrUnsupportedContent is returned for content types a converter cannot read.
	ErrUnsupportedContent = errors.New("unsupported content type")

	// ErrEmptyResult is returned when conversion produced no text.
	ErrEmptyResult = errors.New("conversion produced no content")
)

// Converter converts raw document bytes into markdown.
type Converter interface {
	// Convert returns markdown for raw. contentType may be empty, in which
	// case it is sniffed from the bytes.
	Convert(ctx context.Context, raw []byte, contentType string) (string, error)
}

// DetectContentType returns the media type of raw without parameters.
// An explicit contentType wins over sniffing.
func DetectContentType(raw []byte, contentType string) string {
	if contentType == "" {
		contentType = http.DetectContentType(raw)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// Router converts text formats itself and delegates everything else.
type Router struct {
	next   Converter
	logger *slog.Logger
}

// NewRouter creates a router delegating binary formats to next.
func NewRouter(next Converter) *Router {
	return &Router{
		next:   next,
		logger: slog.Default().With("component", "convert-router"),
	}
}

// Convert implements Converter.
func (r *Router) Convert(ctx context.Context, raw []byte, contentType string) (string, error) {
	mediaType := DetectContentType(raw, contentType)
	switch mediaType {
	case "text/markdown", "text/x-markdown", "text/plain":
		r.logger.Debug("passing text through", "contentType", mediaType, "bytes", len(raw))
		text := strings.ReplaceAll(string(raw), "\f", "\n"+PageBreak+"\n")
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyResult
		}
		return text, nil
	}
	if r.next == nil {
		return "", ErrUnsupportedContent
	}
	return r.next.Convert(ctx, raw, mediaType)
}
