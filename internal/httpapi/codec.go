package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/alexanderramin/greenpath/internal/casestatus"
	"github.com/alexanderramin/greenpath/internal/composer"
	"github.com/alexanderramin/greenpath/internal/repository"
	"github.com/alexanderramin/greenpath/internal/service"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Receipt     string `json:"receipt,omitempty"`
	ManualURL   string `json:"manual_check_url,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes. Internal failures never
// leak their description.
func writeError(w http.ResponseWriter, err error) {
	var lookup *casestatus.LookupError
	var invariant *composer.InvariantError
	switch {
	case errors.As(err, &lookup):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:       "upstream_unavailable",
			Description: "case status could not be retrieved; check it manually",
			Receipt:     lookup.Receipt,
			ManualURL:   lookup.URL,
		})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, casestatus.ErrInvalidReceipt):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Description: err.Error()})
	case errors.Is(err, service.ErrUnknownPath), errors.Is(err, service.ErrNoActiveCase), errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Description: err.Error()})
	case errors.As(err, &invariant):
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "invariant_violation"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
}

// decodeJSON reads a bounded body into dst. An empty body leaves dst unchanged.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return badRequest("body", "unreadable")
	}
	if len(body) > maxBodyBytes {
		return badRequest("body", "too large")
	}
	if len(body) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func badRequest(field, msg string) error {
	return &service.InputError{Field: field, Message: msg}
}
