package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/go-chi/chi/v5"
)

// ErrorResponse is the standard error format for REST API responses.
// Business rule failures carry the rule key and the entities involved.
type ErrorResponse struct {
	Error      string  `json:"error"`
	Code       string  `json:"code,omitempty"`
	Field      string  `json:"field,omitempty"`
	AccountIDs []int64 `json:"account_ids,omitempty"`
	Instrument string  `json:"name,omitempty"`
	TradeID    *int64  `json:"trade_id,omitempty"`
	GroupID    *int64  `json:"group_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindInvariant:
		return http.StatusUnprocessableEntity
	case models.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError renders an error returned by a service. Internal errors
// are logged and hidden from the client.
func WriteServiceError(w http.ResponseWriter, logger *common.Logger, err error) {
	kind := models.KindOf(err)
	status := statusFor(kind)

	if v, ok := models.AsViolation(err); ok {
		WriteJSON(w, status, ErrorResponse{
			Error:      v.Error(),
			Code:       string(v.Key),
			AccountIDs: v.AccountIDs,
			Instrument: v.Instrument,
			TradeID:    v.TradeID,
			GroupID:    v.GroupID,
		})
		return
	}

	var invalid *models.InvalidArgumentError
	if errors.As(err, &invalid) {
		WriteJSON(w, status, ErrorResponse{Error: invalid.Error(), Code: kind.String(), Field: invalid.Field})
		return
	}

	logger.Error().Err(err).Msg("Request failed")
	WriteErrorWithCode(w, status, "Internal server error", kind.String())
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// idParam reads a positive integer path parameter.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		WriteErrorWithCode(w, http.StatusBadRequest, "invalid "+name+": must be a positive integer", models.KindInvalidArgument.String())
		return 0, false
	}
	return id, true
}

// pageParam reads a zero-based page number from the query string.
func pageParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		WriteErrorWithCode(w, http.StatusBadRequest, "invalid "+name+": must be a non-negative integer", models.KindInvalidArgument.String())
		return 0, false
	}
	return n, true
}
