package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMaxIDLength bounds identifiers to what common search indexes accept as keys.
	DefaultMaxIDLength = 1024

	documentIDPrefix = "doc_"
	chunkIDInfix     = "_chunk_"
	timestampLayout  = "20060102_150405"
)

// NormalizeLocator canonicalises a source locator so that trivially different
// spellings of the same URL hash to the same identifier. The locator is
// lowercased and trimmed, the fragment dropped and any trailing slash removed
// from the path. Scheme, host, path and a non-empty query are kept verbatim.
func NormalizeLocator(locator string) string {
	s := strings.ToLower(strings.TrimSpace(locator))
	s, _, _ = strings.Cut(s, "#")
	base, query, _ := strings.Cut(s, "?")
	base = strings.TrimRight(base, "/")
	if query == "" {
		return base
	}
	return base + "?" + query
}

// BaseDocumentID derives the identifier shared by every page of a document.
func BaseDocumentID(locator string, maxLen int) string {
	return BaseDocumentIDAt(locator, maxLen, time.Now())
}

// BaseDocumentIDAt is BaseDocumentID with an explicit clock reading. A
// non-empty locator yields "doc_" followed by the SHA-256 hex digest of its
// normalized form. An empty locator falls back to a UTC timestamp at second
// resolution, which is unique only per second.
func BaseDocumentIDAt(locator string, maxLen int, now time.Time) string {
	var id string
	if strings.TrimSpace(locator) != "" {
		sum := sha256.Sum256([]byte(NormalizeLocator(locator)))
		id = documentIDPrefix + hex.EncodeToString(sum[:])
	} else {
		id = documentIDPrefix + now.UTC().Format(timestampLayout)
	}
	return truncateID(id, maxLen)
}

// ChunkID derives the identifier of one page. When the result would exceed
// maxLen the base id is shortened so that the page suffix survives intact.
func ChunkID(baseID string, page int, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxIDLength
	}
	suffix := chunkIDInfix + strconv.Itoa(page)
	id := baseID + suffix
	if len(id) <= maxLen {
		return id
	}
	keep := maxLen - len(suffix)
	if keep < 0 {
		return suffix[len(suffix)-maxLen:]
	}
	return baseID[:keep] + suffix
}

func truncateID(id string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxIDLength
	}
	if maxLen < len(documentIDPrefix) {
		maxLen = len(documentIDPrefix)
	}
	if len(id) > maxLen {
		return id[:maxLen]
	}
	return id
}
