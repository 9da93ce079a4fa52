package ai

import (
	"github.com/poiesic/folio/core"
)

// MaxKeyTopics caps the number of topics kept from an analysis.
const MaxKeyTopics = 10

// Analysis is the decoded structured output of Analyst.AnalyzeDocument.
type Analysis struct {
	// Summary is an extractive summary built from sentences of the document.
	Summary string

	// KeyTopics holds at most MaxKeyTopics topics, most important first.
	KeyTopics []string

	// DocumentType is one of core.DocumentTypes.
	DocumentType core.DocumentType

	// PublishedDate is MM-DD-YYYY, or core.NoPublishedDate.
	PublishedDate string
}
