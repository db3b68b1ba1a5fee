package swagger

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/warden/pkg/httputil"
)

//go:embed openapi.yaml
var openapiSpec []byte

var swaggerUI = template.Must(template.New("swagger").Parse(swaggerUITemplate))

// SwaggerHandlers serves the OpenAPI document and a Swagger UI page
type SwaggerHandlers struct {
	specJSON []byte
	prefix   string
}

// NewSwaggerHandlers creates a new SwaggerHandlers instance. prefix is the path
// the routes are mounted under and is used to point the UI at the document.
func NewSwaggerHandlers(prefix string) (*SwaggerHandlers, error) {
	specJSON, err := yamlToJSON(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to convert openapi spec: %w", err)
	}
	return &SwaggerHandlers{specJSON: specJSON, prefix: prefix}, nil
}

// RegisterRoutes registers the swagger routes with the router
func (h *SwaggerHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/openapi.yaml", h.serveOpenAPISpec).Methods(http.MethodGet)
	router.HandleFunc("/openapi.json", h.serveOpenAPISpecJSON).Methods(http.MethodGet)
	router.HandleFunc("/docs", h.serveSwaggerUI).Methods(http.MethodGet)
}

// serveOpenAPISpec serves the OpenAPI specification in YAML format
func (h *SwaggerHandlers) serveOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiSpec)
}

// serveOpenAPISpecJSON serves the OpenAPI specification in JSON format
func (h *SwaggerHandlers) serveOpenAPISpecJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.specJSON)
}

// serveSwaggerUI serves the Swagger UI HTML page
func (h *SwaggerHandlers) serveSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := swaggerUI.Execute(w, struct{ SpecURL string }{SpecURL: h.prefix + "/openapi.yaml"}); err != nil {
		httputil.WriteInternalError(w)
	}
}

func yamlToJSON(in []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(in, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(stringKeys(doc))
}

// stringKeys rewrites non-string map keys, which encoding/json cannot marshal
func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}

const swaggerUITemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Warden API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/swagger-ui.css" />
  <link rel="icon" type="image/png" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/favicon-32x32.png" sizes="32x32" />
  <link rel="icon" type="image/png" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/favicon-16x16.png" sizes="16x16" />
  <style>
    html {
      box-sizing: border-box;
      overflow: -moz-scrollbars-vertical;
      overflow-y: scroll;
    }
    *, *:before, *:after {
      box-sizing: inherit;
    }
    body {
      margin:0;
      padding:0;
    }
  </style>
</head>
<body>
<div id="swagger-ui"></div>

<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/swagger-ui-bundle.js" charset="UTF-8"></script>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/swagger-ui-standalone-preset.js" charset="UTF-8"></script>
<script>
window.onload = function() {
  window.ui = SwaggerUIBundle({
    url: "{{.SpecURL}}",
    dom_id: '#swagger-ui',
    deepLinking: true,
    presets: [
      SwaggerUIBundle.presets.apis,
      SwaggerUIStandalonePreset
    ],
    plugins: [
      SwaggerUIBundle.plugins.DownloadUrl
    ],
    layout: "StandaloneLayout",
    requestInterceptor: function(request) {
      const token = localStorage.getItem('token');
      if (token) {
        request.headers['Authorization'] = 'Bearer ' + token;
      }
      return request;
    }
  });
};
</script>
</body>
</html>`
