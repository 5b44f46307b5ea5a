// Package handler holds the JSON response and error mapping helpers shared
// by the HTTP handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/lavka/internal/domain"
	"github.com/dukerupert/lavka/internal/middleware"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	case domain.ENOTIMPL:
		return http.StatusNotImplemented // 501
	default:
		return http.StatusInternalServerError // 500
	}
}

// ErrorResponse writes err as JSON with the status its code maps to.
// 5xx responses are logged at Error, everything else at Info.
// Internal errors get a generic message; details carries the underlying
// error text for diagnostics.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	body := ErrorBody{
		Error:   domain.ErrorMessage(err),
		Code:    code,
		Details: domain.ErrorDetails(err),
		Fields:  domain.GetValidationFields(err),
	}

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request failed", attrs...)
	}

	JSON(w, status, body)
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "Route %s %s not found", r.Method, r.URL.Path))
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected so client typos surface as 400s. Syntax and
// type errors become EINVALID; an over-limit body becomes ETOOLARGE.
func DecodeJSON(r *http.Request, dst any) error {
	const op = "request.decode"

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return domain.Errorf(domain.EINVALID, op, "Content-Type must be application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var (
			syntaxErr *json.SyntaxError
			typeErr   *json.UnmarshalTypeError
			maxErr    *http.MaxBytesError
		)
		switch {
		case errors.Is(err, io.EOF):
			return domain.Errorf(domain.EINVALID, op, "Request body is empty")
		case errors.As(err, &maxErr):
			return domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
		case errors.As(err, &syntaxErr):
			return domain.Errorf(domain.EINVALID, op, "Malformed JSON at offset %d", syntaxErr.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return domain.Errorf(domain.EINVALID, op, "Malformed JSON")
		case errors.As(err, &typeErr):
			return domain.Errorf(domain.EINVALID, op, "Field %s must be %s", typeErr.Field, typeErr.Type)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return domain.Errorf(domain.EINVALID, op, "Unknown field %s", field)
		default:
			return domain.WrapError(err, domain.EINVALID, op, "Invalid request body")
		}
	}

	if dec.More() {
		return domain.Errorf(domain.EINVALID, op, "Request body must contain a single JSON object")
	}
	return nil
}

// QueryInt parses an optional integer query parameter. Missing or
// malformed values yield def.
func QueryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// QueryBool reports whether a query flag is on. "true", "1", "yes" and a
// bare key ("?featured") count as on.
func QueryBool(r *http.Request, key string) bool {
	q := r.URL.Query()
	if !q.Has(key) {
		return false
	}
	switch strings.ToLower(q.Get(key)) {
	case "", "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
