package swagger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *mux.Router {
	t.Helper()
	handlers, err := NewSwaggerHandlers("/api")
	require.NoError(t, err)

	router := mux.NewRouter()
	handlers.RegisterRoutes(router.PathPrefix("/api").Subrouter())
	return router
}

func TestRegisterRoutes(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name        string
		path        string
		contentType string
	}{
		{"OpenAPI YAML endpoint", "/api/openapi.yaml", "application/x-yaml"},
		{"OpenAPI JSON endpoint", "/api/openapi.json", "application/json"},
		{"Swagger UI endpoint", "/api/docs", "text/html; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.NotEmpty(t, w.Body.Bytes())
		})
	}
}

func TestServeOpenAPISpecJSON(t *testing.T) {
	router := newRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		OpenAPI string                                `json:"openapi"`
		Paths   map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)

	for path, methods := range map[string][]string{
		"/api/users/register": {"post"},
		"/api/auth/login":     {"post"},
		"/api/auth/profile":   {"get"},
		"/api/users":          {"get"},
		"/api/users/{id}":     {"put", "delete"},
	} {
		require.Contains(t, doc.Paths, path)
		for _, method := range methods {
			assert.Contains(t, doc.Paths[path], method, "%s %s", method, path)
		}
	}
}

func TestServeSwaggerUI(t *testing.T) {
	router := newRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Warden API - Swagger UI")
	assert.Contains(t, body, "swagger-ui")
	assert.Contains(t, body, `openapi.yaml`)
}

func TestStringKeys(t *testing.T) {
	in := map[interface{}]interface{}{
		200:      "ok",
		"nested": []interface{}{map[interface{}]interface{}{true: 1}},
	}
	out, err := json.Marshal(stringKeys(in))
	require.NoError(t, err)
	assert.JSONEq(t, `{"200":"ok","nested":[{"true":1}]}`, string(out))
}
