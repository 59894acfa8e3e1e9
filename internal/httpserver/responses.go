package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/eb1-screener/internal/document"
	"github.com/spigell/eb1-screener/internal/evaluation"
	"github.com/spigell/eb1-screener/internal/logger"
)

var (
	errInvalidBody      = errors.New("invalid request body")
	errUnknownVariant   = errors.New("unknown evaluation variant")
	errUnsupportedMedia = errors.New("unsupported media type")
	errTooLarge         = errors.New("request body too large")
)

const messageUnavailable = "evaluation service is temporarily unavailable, please retry later"

type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Generation failures never expose
// provider details to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, details map[string]string) {
	status := http.StatusInternalServerError
	message := "internal error"

	var reqErr *evaluation.RequestError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &reqErr):
		status, message = http.StatusBadRequest, evaluation.ErrInvalidRequest.Error()
		if details == nil {
			details = reqErr.Fields
		}
	case errors.Is(err, evaluation.ErrInvalidRequest), errors.Is(err, errInvalidBody):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, errUnknownVariant):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, errUnsupportedMedia):
		status, message = http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, document.ErrTooLarge), errors.Is(err, errTooLarge), errors.As(err, &maxErr):
		status, message = http.StatusRequestEntityTooLarge, errTooLarge.Error()
	case errors.Is(err, evaluation.ErrGenerationFailed):
		message = messageUnavailable
	}

	log := logger.FromContext(r.Context(), nil)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, errorBody{Error: message, Details: details})
}
