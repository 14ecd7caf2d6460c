package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Simplici0/blinds/internal/distribution"
	"github.com/Simplici0/blinds/internal/quote"
	"github.com/Simplici0/blinds/internal/repo"
	"github.com/Simplici0/blinds/internal/workflow"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request body or parameter.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

type errorBody struct {
	Error                string      `json:"error"`
	Cell                 *quote.Cell `json:"cell,omitempty"`
	ConfirmationRequired bool        `json:"confirmationRequired,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

// writeError maps workflow and validation errors to status codes. Anything
// unexpected is logged and reported as 500 without details.
func (s *server) writeError(w http.ResponseWriter, err error) {
	var (
		reqErr     *requestError
		inputErr   *workflow.InputError
		validErr   *distribution.ValidationError
		confirmErr *workflow.ConfirmationError
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: reqErr.Error()})
	case errors.As(err, &confirmErr):
		writeJSON(w, http.StatusConflict, errorBody{Error: confirmErr.Message, ConfirmationRequired: true})
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: inputErr.Message, Cell: inputErr.Cell})
	case errors.As(err, &validErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: validErr.Message})
	case errors.Is(err, repo.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "quote not found"})
	case errors.Is(err, workflow.ErrNoRepository):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	default:
		s.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
