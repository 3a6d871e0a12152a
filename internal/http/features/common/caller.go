// Package common holds helpers shared by feature handlers.
package common

import (
	"log/slog"
	"net/http"

	"github.com/trackly/trackly-home/internal/http/middleware"
	"github.com/trackly/trackly-home/internal/httputil"
	"github.com/trackly/trackly-home/pkg/domain"
)

// Caller returns the authenticated caller, writing a 401 and returning false
// when the request has none.
func Caller(w http.ResponseWriter, r *http.Request) (*domain.Caller, bool) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok || caller == nil {
		httputil.Error(w, domain.CodeUnauthorized, domain.ErrUnauthorized.Message)
		return nil, false
	}
	return caller, true
}

// Decode strictly decodes the request body into v, writing the error
// response and returning false on failure.
func Decode(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v any) bool {
	if err := httputil.DecodeJSON(r, v); err != nil {
		httputil.WriteError(w, r, logger, err)
		return false
	}
	return true
}

// HouseholdRequest is the body of endpoints scoped to one household.
type HouseholdRequest struct {
	HouseholdID string `json:"household_id"`
}

// EmptyRequest is the body of endpoints that take no parameters.
type EmptyRequest struct{}
