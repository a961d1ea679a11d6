package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/luisherrera/finances-go/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseDateParam reads a query parameter in YYYY-MM-DD form. A missing
// parameter returns the zero time and no error; a malformed one fails.
func parseDateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(domain.DateOnly, v, time.UTC)
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: name, Message: "must be a YYYY-MM-DD date"}
	}
	return t, nil
}

// requireDateRange reads the mandatory start_date/end_date query pair.
func requireDateRange(r *http.Request) (start, end time.Time, err error) {
	start, err = parseDateParam(r, "start_date")
	if err != nil {
		return
	}
	if start.IsZero() {
		err = &domain.ErrValidation{Field: "start_date", Message: "is required"}
		return
	}
	end, err = parseDateParam(r, "end_date")
	if err != nil {
		return
	}
	if end.IsZero() {
		err = &domain.ErrValidation{Field: "end_date", Message: "is required"}
	}
	return
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var (
		notFound    *domain.ErrNotFound
		conflict    *domain.ErrConflict
		validation  *domain.ErrValidation
		circuitOpen *domain.ErrCircuitOpen
		timeout     *domain.ErrTimeout
		external    *domain.ErrExternalService
		unavailable *domain.ErrGeneratorUnavailable
		ragDown     *domain.ErrRagUnavailable
	)

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &unavailable):
		logger.Error("generator unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &ragDown):
		logger.Error("rag provider unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
