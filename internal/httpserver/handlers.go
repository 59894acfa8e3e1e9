package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spigell/eb1-screener/internal/evaluation"
)

const (
	headerVariant  = "X-Eval-Variant"
	headerStrategy = "X-Extraction-Strategy"
)

type variantInfo struct {
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Requirements evaluation.Requirements `json:"requirements"`
}

func (s *Server) variants(w http.ResponseWriter, _ *http.Request) {
	flows := s.deps.Registry.Flows()
	out := make([]variantInfo, 0, len(flows))
	for _, f := range flows {
		out = append(out, variantInfo{Name: f.Name(), Description: f.Description(), Requirements: f.Requirements()})
	}
	writeJSON(w, http.StatusOK, out)
}

// evaluate runs one variant. With ?diagnostics=true the response also carries
// the extraction strategy and the raw model output.
func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "variant")
	flow, ok := s.deps.Registry.Get(name)
	if !ok {
		writeError(w, r, fmt.Errorf("%w %q", errUnknownVariant, name), nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var req evaluation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, err, nil)
			return
		}
		writeError(w, r, fmt.Errorf("%w: %v", errInvalidBody, err), nil)
		return
	}

	report, err := flow.Run(r.Context(), req)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	w.Header().Set(headerVariant, report.Variant)
	w.Header().Set(headerStrategy, string(report.Strategy))

	if diagnostics, _ := strconv.ParseBool(r.URL.Query().Get("diagnostics")); diagnostics {
		writeJSON(w, http.StatusOK, report)
		return
	}
	writeJSON(w, http.StatusOK, report.Result)
}

func (s *Server) extractDocument(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		writeError(w, r, fmt.Errorf("%w: expected multipart/form-data", errUnsupportedMedia), nil)
		return
	}

	limit := s.deps.Documents.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxJSONBody)
	if err := r.ParseMultipartForm(maxJSONBody); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(strings.ToLower(err.Error()), "too large") {
			writeError(w, r, fmt.Errorf("%w: %v", errTooLarge, err), nil)
			return
		}
		writeError(w, r, fmt.Errorf("%w: %v", errInvalidBody, err), nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: file is required", errInvalidBody), map[string]string{"file": "required"})
		return
	}
	defer func() { _ = file.Close() }()

	extraction, err := s.deps.Documents.Extract(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, extraction)
}
