package core

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// NoPublishedDate is the sentinel an analyzer reports when a document
// carries no identifiable publication date.
const NoPublishedDate = "00-00-0000"

// Fingerprint returns a stable content hash used to detect unchanged pages
// across repeated ingestion of the same document.
func Fingerprint(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentType is the coarse category an analyzer assigns to a document.
type DocumentType string

const (
	DocumentTypeReport       DocumentType = "Report"
	DocumentTypeManual       DocumentType = "Manual"
	DocumentTypePolicy       DocumentType = "Policy"
	DocumentTypePresentation DocumentType = "Presentation"
	DocumentTypeLegal        DocumentType = "Legal"
	DocumentTypeFinancial    DocumentType = "Financial"
	DocumentTypeAcademic     DocumentType = "Academic"
	DocumentTypeMarketing    DocumentType = "Marketing"
	DocumentTypeTechnical    DocumentType = "Technical"
	DocumentTypeOther        DocumentType = "Other"
	// DocumentTypeUnknown marks a degraded analysis; analyzers never choose it.
	DocumentTypeUnknown DocumentType = "Unknown"
)

// DocumentTypes lists the categories an analyzer may choose from, in prompt order.
var DocumentTypes = []DocumentType{
	DocumentTypeReport,
	DocumentTypeManual,
	DocumentTypePolicy,
	DocumentTypePresentation,
	DocumentTypeLegal,
	DocumentTypeFinancial,
	DocumentTypeAcademic,
	DocumentTypeMarketing,
	DocumentTypeTechnical,
	DocumentTypeOther,
}

// ParseDocumentType maps a model-supplied label onto the fixed category set.
// Matching ignores case and surrounding whitespace; anything unrecognised is Other.
func ParseDocumentType(label string) DocumentType {
	label = strings.TrimSpace(label)
	for _, dt := range DocumentTypes {
		if strings.EqualFold(label, string(dt)) {
			return dt
		}
	}
	return DocumentTypeOther
}

// AnalysisStatus reports whether document analysis completed.
type AnalysisStatus string

const (
	AnalysisSucceeded AnalysisStatus = "success"
	AnalysisFailed    AnalysisStatus = "failed"
)

// PageRecord is one page of a converted document.
type PageRecord struct {
	DocumentID      string    `json:"document_id"`
	PageNumber      int       `json:"page_number"`
	MarkdownContent string    `json:"markdown_content"`
	TokenCount      int       `json:"token_count"`
	BatchIndex      int       `json:"batch_index"`
	Vector          []float32 `json:"vector,omitempty"` // populated when an embedder is configured
}

// DocumentAnalysis is the document-level summary produced by the analyzer.
type DocumentAnalysis struct {
	BaseDocumentID string         `json:"base_document_id"`
	TotalPages     int            `json:"total_pages"`
	TotalTokens    int            `json:"total_tokens"`
	Summary        *string        `json:"summary"`
	KeyTopics      []string       `json:"key_topics"`
	DocumentType   DocumentType   `json:"document_type"`
	PublishedDate  string         `json:"published_date"` // MM-DD-YYYY or NoPublishedDate
	Status         AnalysisStatus `json:"analysis_status"`
	Error          string         `json:"error,omitempty"`
}

// IngestionResult is returned by a successful ingestion request.
type IngestionResult struct {
	DocumentSummary *DocumentAnalysis `json:"document_summary"`
	Pages           []*PageRecord     `json:"pages"`
}

// SearchDocument is a caller-supplied record destined for a search index.
// Only the id, vector and published_date fields are interpreted; everything
// else passes through to the index untouched.
type SearchDocument map[string]any

const (
	FieldID            = "id"
	FieldVector        = "vector"
	FieldPublishedDate = "published_date"
)

// Key returns the document id as a string. Numeric ids are rendered in
// their shortest decimal form; an absent or empty id yields "".
func (d SearchDocument) Key() string {
	id, ok := documentID(d)
	if !ok {
		return ""
	}
	return id
}
