package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/core/ports"
	"github.com/loanbox/orchestrator/internal/server"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error *domain.APIError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes err as {"error":{"type","message"}}. Errors that are not
// an *domain.APIError are reported as server errors.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		apiErr = domain.ErrServer(err.Error())
	}
	if apiErr.HTTPStatusCode() >= http.StatusInternalServerError {
		server.AddError(r.Context(), err)
	}
	writeJSON(w, apiErr.HTTPStatusCode(), errorResponse{Error: apiErr})
}

// unprocessable marks a field validation error with 422.
func unprocessable(err error) error {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Type == domain.ErrorTypeInvalidRequest {
		return apiErr.WithStatusCode(http.StatusUnprocessableEntity)
	}
	return err
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrInvalidRequest("request body is empty")
		}
		return domain.ErrInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidRequest(fmt.Sprintf("invalid id %q", raw)).
			WithParam("id").
			WithStatusCode(http.StatusUnprocessableEntity)
	}
	return id, nil
}

// listOptions reads ?skip=&limit=. Defaults are 0 and 100.
func listOptions(r *http.Request) (ports.ListOptions, error) {
	opts := ports.ListOptions{Limit: 100}
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"skip", &opts.Offset},
		{"limit", &opts.Limit},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return opts, domain.ErrInvalidRequest(fmt.Sprintf("%s must be a non-negative integer", p.name)).
				WithParam(p.name).
				WithStatusCode(http.StatusUnprocessableEntity)
		}
		*p.dst = v
	}
	return opts, nil
}

// notFound rewrites a store not found error to the short message clients see.
func notFound(err error, message string) error {
	if domain.IsNotFound(err) {
		return domain.ErrNotFound(message)
	}
	return err
}
