// Package analysis produces the document-level summary of an ingested document.
//
// Documents whose token count is below the single-shot limit are analysed in
// one structured call. Larger documents are first reduced to an extractive
// summary with a map-reduce pass: the text is split into overlapping
// token-bounded sections, key content is extracted from each section
// concurrently, and the labelled extracts are combined into one summary that
// then goes through the same structured call.
//
// Analysis never returns an error. Failures are reported in the result's
// status so that page records can still be returned to the caller.
package analysis
