package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/felixgeelhaar/chartforge/application"
	"github.com/felixgeelhaar/chartforge/domain/artifact"
	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
	"github.com/felixgeelhaar/chartforge/domain/export"
	"github.com/felixgeelhaar/chartforge/infrastructure/loader"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

// HealthStatus represents server health.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.config.Version,
	})
}

// handleListDatasets lists the configured datasets.
func (s *Server) handleListDatasets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Datasets())
}

// handleSummary describes one dataset.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Describe(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleCompile compiles a single chart.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	spec, err := s.service.Compile(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

// handleCompose compiles a composition.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	comp, err := s.service.Compose(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

// handleExport answers the encoded chart. A chart without data answers
// 204 No Content.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	out, err := s.service.Export(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(out.Data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeFile(w, out.ContentType(), out.FileName, out.Data)
}

// handlePreview answers an interactive HTML page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.service.Preview(r.Context(), doc, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handlePublish exports the chart to the artifact store and answers its
// reference.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if !s.service.PublishingEnabled() {
		writeError(w, r, api.ErrPublishingDisabled)
		return
	}
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	ref, err := s.service.Publish(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", artifactPath(ref))
	writeJSON(w, http.StatusCreated, ref)
}

// handleArtifact downloads a published export.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, ref, err := s.service.Artifact(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", `"`+ref.Checksum+`"`)
	writeFile(w, ref.ContentType(), ref.FileName(), data)
}

// handleMetrics answers the current metric values.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.service.Metrics(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// readDocument decodes the request body. The dataset always comes from the
// path. On failure the error answer has been written.
func readDocument(w http.ResponseWriter, r *http.Request) (api.Document, bool) {
	format := api.DocumentJSON
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.Contains(mediaType, "yaml") {
		format = api.DocumentYAML
	}

	doc, err := api.DecodeDocument(r.Body, format)
	if err != nil {
		writeError(w, r, err)
		return api.Document{}, false
	}
	doc.Dataset = chi.URLParam(r, "name")
	return doc, true
}

func artifactPath(ref artifact.Ref) string {
	return fmt.Sprintf("/v1/artifacts/%s/%s", ref.ID, ref.Format)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// writeError answers err with the status it maps to.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		httpLog.Error().
			Add(logging.Path(r.URL.Path)).
			Add(logging.ErrorField(err)).
			Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, api.ErrUnknownDataset),
		errors.Is(err, artifact.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrPublishingDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, api.ErrNothingToExport):
		return http.StatusUnprocessableEntity
	case errors.Is(err, api.ErrInvalidDocument),
		errors.Is(err, chart.ErrUnknownType),
		errors.Is(err, chart.ErrInvalidBinding),
		errors.Is(err, chart.ErrInvalidOptions),
		errors.Is(err, chart.ErrOptionsMismatch),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, export.ErrInvalidSize),
		errors.Is(err, artifact.ErrInvalidRef),
		errors.Is(err, application.ErrMissingColumn),
		errors.Is(err, application.ErrInvalidSample),
		errors.Is(err, dataset.ErrNotNumeric):
		return http.StatusBadRequest
	case errors.Is(err, loader.ErrUnsupportedSource),
		errors.Is(err, loader.ErrNoData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
