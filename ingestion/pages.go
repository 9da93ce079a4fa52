package ingestion

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/tokens"
)

// PageBreakMarker separates pages in converted markdown.
const PageBreakMarker = "<!-- PageBreak -->"

var (
	pageNumberPattern = regexp.MustCompile(`<!-- PageNumber="(\d+)" -->`)
	// Metadata markers are removed together with the whitespace that follows them.
	pageMetadataPattern = regexp.MustCompile(`<!-- (PageNumber|PageHeader|PageFooter)="[^"]*" -->\s*`)
)

// SplitPages cuts converted markdown into page records. Page numbers come
// from the first PageNumber marker in a section when present, otherwise from
// the section's position. Sections that are empty once metadata markers are
// removed produce no record, and positions are not renumbered around them.
// Batch indexes are left at zero; see AssignBatches.
func SplitPages(markdown, baseID string, counter tokens.Counter, maxIDLen int) []*core.PageRecord {
	if counter == nil {
		counter = tokens.Default()
	}

	sections := strings.Split(markdown, PageBreakMarker)
	pages := make([]*core.PageRecord, 0, len(sections))
	for i, section := range sections {
		pageNumber := i + 1
		if m := pageNumberPattern.FindStringSubmatch(section); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				pageNumber = n
			}
		}

		content := strings.TrimSpace(pageMetadataPattern.ReplaceAllString(section, ""))
		if content == "" {
			continue
		}

		pages = append(pages, &core.PageRecord{
			DocumentID:      core.ChunkID(baseID, pageNumber, maxIDLen),
			PageNumber:      pageNumber,
			MarkdownContent: content,
			TokenCount:      counter.Count(content),
		})
	}
	return pages
}
