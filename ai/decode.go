package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/poiesic/folio/core"
)

var (
	// ErrMalformedAnalysis is returned when a model response cannot be decoded into an Analysis.
	ErrMalformedAnalysis = errors.New("malformed analysis response")

	// ErrEmptyResponse is returned when a model produces no choices or no text.
	ErrEmptyResponse = errors.New("empty model response")
)

type analysisPayload struct {
	Summary       *string  `json:"summary"`
	KeyTopics     []string `json:"key_topics"`
	DocumentType  string   `json:"document_type"`
	PublishedDate string   `json:"published_date"`
}

var (
	unquotedKeyPattern   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)"\s*:`)
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
)

// DecodeAnalysis parses a model's JSON response into an Analysis. Code
// fences and chatter around the object are ignored, and a few common
// formatting slips are repaired before giving up.
func DecodeAnalysis(raw string) (*Analysis, error) {
	text := extractObject(StripCodeFence(raw))
	if text == "" {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAnalysis, ErrEmptyResponse)
	}

	var p analysisPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		if err2 := json.Unmarshal([]byte(repairJSON(text)), &p); err2 != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedAnalysis, err)
		}
	}
	if p.Summary == nil {
		return nil, fmt.Errorf("%w: summary is missing", ErrMalformedAnalysis)
	}

	return &Analysis{
		Summary:       *p.Summary,
		KeyTopics:     cleanTopics(p.KeyTopics),
		DocumentType:  core.ParseDocumentType(p.DocumentType),
		PublishedDate: cleanPublishedDate(p.PublishedDate),
	}, nil
}

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// repairJSON fixes keys missing their opening quote and trailing commas,
// the two slips smaller models make most often.
func repairJSON(s string) string {
	s = unquotedKeyPattern.ReplaceAllString(s, `${1}"${2}":`)
	return trailingCommaPattern.ReplaceAllString(s, "$1")
}

func cleanTopics(topics []string) []string {
	out := make([]string, 0, min(len(topics), MaxKeyTopics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) == MaxKeyTopics {
			break
		}
	}
	return out
}

func cleanPublishedDate(d string) string {
	d = strings.TrimSpace(d)
	if d == "" {
		return core.NoPublishedDate
	}
	return d
}
