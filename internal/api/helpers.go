// Package api exposes the document control operations over JSON HTTP. Every
// handler resolves the caller's bearer token, adapts the request onto a
// service operation and maps the typed error taxonomy onto HTTP status codes.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/internal/server"
	"github.com/docworks-io/docvault/internal/service"
	"github.com/docworks-io/docvault/pkg/apperr"
	"github.com/docworks-io/docvault/pkg/models"
	"github.com/docworks-io/docvault/pkg/pagination"
)

// decodeRequest decodes a JSON request body into v.
func decodeRequest(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondJSON writes v as the JSON response body.
func respondJSON(srv *server.Server, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.Logger.Error("error encoding response", "error", err)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps a typed operation error onto an HTTP status.
func respondError(srv *server.Server, w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeValidation:
		status = http.StatusBadRequest
	case apperr.CodeInvalidState:
		status = http.StatusUnprocessableEntity
	case apperr.CodeConflict:
		status = http.StatusConflict
	case apperr.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.CodeForbidden:
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		srv.Logger.Error("request failed", "error", err)
	}
	respondJSON(srv, w, status, errorBody{Code: string(code), Message: err.Error()})
}

// identity resolves the caller from the Authorization header.
func identity(srv *server.Server, r *http.Request) (auth.Identity, error) {
	return srv.Verifier.VerifyBearer(r.Header.Get("Authorization"))
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid id %q", raw)
	}
	return uint(id), nil
}

// pageFromQuery reads the skip/take paging parameters.
func pageFromQuery(r *http.Request) *pagination.Input {
	q := r.URL.Query()
	skip, _ := strconv.Atoi(q.Get("skip"))
	take, _ := strconv.Atoi(q.Get("take"))
	return &pagination.Input{Skip: skip, Take: take}
}

// orderFromQuery reads the orderBy/direction sort parameters.
func orderFromQuery(r *http.Request) *service.OrderBy {
	q := r.URL.Query()
	field := q.Get("orderBy")
	if field == "" {
		return nil
	}
	dir := models.SortAsc
	if q.Get("direction") == string(models.SortDesc) {
		dir = models.SortDesc
	}
	return &service.OrderBy{Field: field, Direction: dir}
}
