// Package handler exposes the storefront services over HTTP/JSON.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/model"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode failure is a dropped client.
	_ = json.NewEncoder(w).Encode(data)
}

// statusFor maps an error kind to its HTTP status code.
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindInvalidArgument:
		return http.StatusBadRequest
	case model.KindUnauthenticated:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindInsufficientStock, model.KindInvalidState, model.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates err into a structured error response. Domain errors
// keep their code, message and detail; anything else becomes a generic 500
// and is only logged.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	resp := model.ErrorResponse{CorrelationID: chimw.GetReqID(r.Context())}

	var de *model.DomainError
	if errors.As(err, &de) && de.Kind != model.KindInternal {
		resp.Error = de.Code
		resp.Message = de.Message
		resp.Details = de.Detail
	} else {
		resp.Error = model.ErrCodeInternalError
		resp.Message = "Internal server error"
	}

	status := statusFor(model.KindOf(err))
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Int("status", status).
		Str("code", resp.Error).
		Str("request_id", resp.CorrelationID).
		Msg("request failed")

	writeJSON(w, status, resp)
}

// decodeJSON strictly decodes the request body into dst. Unknown fields,
// trailing data and type mismatches are reported as INVALID_JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return invalidJSON(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return model.InvalidArgument(model.ErrCodeInvalidJSON, "Request body must contain a single JSON object")
	}
	return nil
}

func invalidJSON(err error) *model.DomainError {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return model.InvalidArgument(model.ErrCodeInvalidJSON, "Request body is empty")
	case errors.As(err, &syntaxErr):
		return model.InvalidArgument(model.ErrCodeInvalidJSON, "Malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return model.InvalidArgument(model.ErrCodeInvalidJSON, "Field %q has the wrong type", typeErr.Field)
	case errors.As(err, &maxErr):
		return model.InvalidArgument(model.ErrCodeInvalidJSON, "Request body exceeds %d bytes", maxErr.Limit)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return model.InvalidArgument(model.ErrCodeInvalidJSON, "Unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	default:
		return model.InvalidArgument(model.ErrCodeInvalidJSON, "Invalid request body")
	}
}

// parseID parses a positive numeric path parameter.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// callerID returns the authenticated user's ID, zero when the request
// carries no principal.
func callerID(r *http.Request) int64 {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return 0
	}
	return p.ID
}
