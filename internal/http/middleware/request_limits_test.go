package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestSizeLimit(t *testing.T) {
	readBody := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		case err != nil:
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})

	tests := []struct {
		name       string
		limit      int64
		bodySize   int
		wantStatus int
	}{
		{"under limit", 100, 50, http.StatusOK},
		{"exact limit", 100, 100, http.StatusOK},
		{"over limit surfaces MaxBytesError", 100, 150, http.StatusRequestEntityTooLarge},
		{"zero disables the limit", 0, 1 << 20, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bytes.Repeat([]byte("a"), tt.bodySize)
			req := httptest.NewRequest(http.MethodPost, "/accept-invite", bytes.NewReader(body))
			w := httptest.NewRecorder()

			RequestSizeLimit(tt.limit)(readBody).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
