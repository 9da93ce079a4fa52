package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/poiesic/folio/convert"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/indexing"
	"github.com/poiesic/folio/ingestion"
	"github.com/poiesic/folio/storage"
)

// validationResponse is returned when an indexing request fails validation.
type validationResponse struct {
	Indexed int                   `json:"indexed"`
	Failed  int                   `json:"failed"`
	Results []storage.IndexResult `json:"results"`
	Errors  []string              `json:"errors"`
}

type documentIDRequest struct {
	SourceURL string `json:"source_url"`
}

type documentIDResponse struct {
	BaseDocumentID string `json:"base_document_id"`
	SourceURL      string `json:"source_url"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) processDocument(w http.ResponseWriter, r *http.Request) {
	sourceURL := r.URL.Query().Get("source_url")

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Sprintf("Failed to read request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(raw) == 0 {
		writeError(w, "Request body is empty. Please provide document binary data.", http.StatusBadRequest)
		return
	}
	s.logger.Info("received document", "bytes", len(raw), "source_url", sourceURL)

	pipeline, err := s.backend.Pipeline(r.Context())
	if err != nil {
		s.configurationError(w, err)
		return
	}

	result, err := pipeline.Ingest(r.Context(), raw, r.Header.Get("Content-Type"), sourceURL)
	switch {
	case err == nil:
		writeJSON(w, result, http.StatusOK)
	case errors.Is(err, ingestion.ErrEmptyDocument):
		writeError(w, "Request body is empty. Please provide document binary data.", http.StatusBadRequest)
	case errors.Is(err, ingestion.ErrConverterRequired):
		s.configurationError(w, err)
	case errors.Is(err, convert.ErrUnsupportedContent):
		writeError(w, fmt.Sprintf("Document processing failed: %v", err), http.StatusUnsupportedMediaType)
	case errors.Is(err, ingestion.ErrConversionFailed):
		s.logger.Error("document conversion failed", "err", err)
		writeError(w, fmt.Sprintf("Document processing failed: %v", err), http.StatusBadGateway)
	default:
		s.internalError(w, err)
	}
}

func (s *Server) indexDocuments(w http.ResponseWriter, r *http.Request) {
	docs, problem := decodeDocuments(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if problem != "" {
		writeError(w, problem, http.StatusBadRequest)
		return
	}

	indexer, err := s.backend.Indexer(r.Context())
	if err != nil {
		s.configurationError(w, err)
		return
	}

	resp, err := indexer.Index(r.Context(), docs)
	var verr *indexing.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, validationResponse{
			Failed:  len(docs),
			Results: []storage.IndexResult{},
			Errors:  verr.Errors,
		}, http.StatusBadRequest)
	case errors.Is(err, indexing.ErrNoDocuments):
		writeError(w, "No documents provided", http.StatusBadRequest)
	case err != nil:
		s.internalError(w, err)
	case resp.OK():
		writeJSON(w, resp, http.StatusOK)
	default:
		writeJSON(w, resp, http.StatusInternalServerError)
	}
}

// decodeDocuments parses an indexing request body. The returned message is
// non-empty when the body is not a non-empty JSON array of objects.
func decodeDocuments(body io.Reader) ([]core.SearchDocument, string) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "Invalid JSON in request body; expected an array of documents"
	}
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, "Invalid JSON in request body; expected an array of documents"
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, "Request body must be a JSON array of documents"
	}
	if len(items) == 0 {
		return nil, "No documents provided"
	}
	docs := make([]core.SearchDocument, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			// Non-object entries have no id and are rejected by validation.
			obj = map[string]any{}
		}
		docs[i] = obj
	}
	return docs, ""
}

func (s *Server) generateDocumentID(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		writeError(w, "Request body is required", http.StatusBadRequest)
		return
	}
	var req *documentIDRequest
	if err := json.Unmarshal(data, &req); err != nil {
		writeError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}
	if req == nil {
		writeError(w, "Request body is required", http.StatusBadRequest)
		return
	}
	if req.SourceURL == "" {
		writeError(w, "source_url is required", http.StatusBadRequest)
		return
	}

	id := core.BaseDocumentID(req.SourceURL, s.maxIDLength)
	s.logger.Info("generated base document id", "id", id)
	writeJSON(w, documentIDResponse{BaseDocumentID: id, SourceURL: req.SourceURL}, http.StatusOK)
}

func (s *Server) configurationError(w http.ResponseWriter, err error) {
	s.logger.Error("configuration error", "err", err)
	writeError(w, fmt.Sprintf("Configuration error: %v", err), http.StatusInternalServerError)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("unexpected error", "err", err)
	writeError(w, fmt.Sprintf("Internal server error: %v", err), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, map[string]string{"error": message}, status)
}
