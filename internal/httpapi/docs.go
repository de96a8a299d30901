package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

//go:embed openapi/openapi.yaml
var openapiSpec []byte

// apiDocs is the OpenAPI document rendered for the configured prefix.
type apiDocs struct {
	doc     *openapi3.T
	json    []byte
	yaml    []byte
	uiIndex []byte
}

// loadOpenAPI parses and validates the embedded document.
func loadOpenAPI() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(openapiSpec)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, err
	}
	return doc, nil
}

func newAPIDocs(basePath string) (*apiDocs, error) {
	doc, err := loadOpenAPI()
	if err != nil {
		return nil, err
	}
	doc.Servers = openapi3.Servers{{URL: basePath}}

	js, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return nil, err
	}
	ym, err := yaml.Marshal(generic)
	if err != nil {
		return nil, err
	}

	var ui strings.Builder
	specURL := strings.TrimSuffix(basePath, "/") + "/doc/openapi.json"
	if err := swaggerPage.Execute(&ui, struct{ Title, SpecURL string }{doc.Info.Title, specURL}); err != nil {
		return nil, err
	}
	return &apiDocs{doc: doc, json: js, yaml: ym, uiIndex: []byte(ui.String())}, nil
}

var swaggerPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
window.onload = function () { SwaggerUIBundle({ url: "{{.SpecURL}}", dom_id: "#swagger-ui" }); };
</script>
</body>
</html>
`))

func (s *Server) swaggerUI(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		s.notFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.docs.uiIndex)
}

func (s *Server) openapiJSON(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		s.notFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.docs.json)
}

func (s *Server) openapiYAML(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		s.notFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.docs.yaml)
}
