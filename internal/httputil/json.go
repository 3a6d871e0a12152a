// Package httputil holds JSON response and request helpers shared by handlers.
package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/trackly/trackly-home/pkg/domain"
)

// ErrorBody is the error payload: {"error": {"message", "code", "status"}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a single error.
type ErrorDetail struct {
	Message string           `json:"message"`
	Code    domain.ErrorCode `json:"code"`
	Status  int              `json:"status"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes a coded error response.
func Error(w http.ResponseWriter, code domain.ErrorCode, message string) {
	status := code.Status()
	JSON(w, status, ErrorBody{Error: ErrorDetail{Message: message, Code: code, Status: status}})
}

// WriteError writes err as an error response. A *domain.Error is written with
// its own code and message; anything else becomes INTERNAL_ERROR. Causes are
// logged by Go type only so store messages never reach logs or clients.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.InternalError(err)
	}

	if de.Code.Status() >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			"code", de.Code,
			"error_type", errorType(de),
			"method", r.Method,
			"path", r.URL.Path,
		)
	}

	Error(w, de.Code, de.Message)
}

func errorType(de *domain.Error) string {
	if de.Err == nil {
		return fmt.Sprintf("%T", de)
	}
	cause := de.Err
	for {
		next := errors.Unwrap(cause)
		if next == nil {
			break
		}
		cause = next
	}
	return fmt.Sprintf("%T", cause)
}

// DecodeJSON strictly decodes a JSON object body into v. Unknown fields,
// trailing data, and non-object bodies are INVALID_REQUEST.
func DecodeJSON(r *http.Request, v any) error {
	var raw json.RawMessage
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&raw); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return domain.NewError(domain.CodeInvalidRequest, "Request body too large")
		case errors.Is(err, io.EOF):
			return domain.NewError(domain.CodeInvalidRequest, "Request body is empty")
		default:
			return errInvalidJSON
		}
	}
	if _, err := dec.Token(); err != io.EOF {
		return errInvalidJSON
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return domain.NewError(domain.CodeInvalidRequest, "Request body must be a JSON object")
	}

	obj := json.NewDecoder(bytes.NewReader(raw))
	obj.DisallowUnknownFields()
	if err := obj.Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}

var errInvalidJSON = domain.NewError(domain.CodeInvalidRequest, "Invalid JSON body")
