// Package convert turns raw document bytes into markdown carrying the page
// markers the ingestion pipeline splits on:
//
//	<!-- PageBreak -->
//	<!-- PageNumber="n" -->
//	<!-- PageHeader="..." -->
//	<!-- PageFooter="..." -->
//
// DocumentIntelligence calls the Azure AI Document Intelligence layout model,
// which emits these markers itself. Docconv extracts text locally and maps
// form feeds to page breaks. Router sends markdown and plain text through
// unchanged and everything else to a backing converter.
package convert
