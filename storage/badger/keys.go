package badger

// Key prefixes for different data types
const (
	indexDocumentPrefix = "idxdoc"
	pageRecordPrefix    = "pagrec"
)

// makeIndexDocumentKey generates a key for a search document by its key field.
func makeIndexDocumentKey(key string) []byte {
	return []byte(indexDocumentPrefix + ":" + key)
}

// makePageKey generates a key for an archived page by chunk id.
func makePageKey(documentID string) []byte {
	return []byte(pageRecordPrefix + ":" + documentID)
}

// pagePrefix is the iteration prefix covering every archived page.
func pagePrefix() []byte {
	return []byte(pageRecordPrefix + ":")
}
