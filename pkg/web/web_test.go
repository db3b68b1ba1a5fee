package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler(t *testing.T) {
	handler := Handler()

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		contentType string
		contains    string
	}{
		{"root serves index", http.MethodGet, "/", http.StatusOK, "text/html", "<title>Warden</title>"},
		{"client route serves index", http.MethodGet, "/admin", http.StatusOK, "text/html", "Admin Dashboard"},
		{"script", http.MethodGet, "/static/app.js", http.StatusOK, "javascript", "/api/auth/login"},
		{"stylesheet", http.MethodGet, "/static/styles.css", http.StatusOK, "text/css", "nav"},
		{"missing asset", http.MethodGet, "/static/missing.js", http.StatusNotFound, "", ""},
		{"post rejected", http.MethodPost, "/login", http.StatusMethodNotAllowed, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.contentType != "" {
				assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			}
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}
