package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Multisig Registry API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '/docs/openapi.yaml', dom_id: '#swagger-ui'});
  </script>
</body>
</html>`

// DocsHandler serves the OpenAPI document and a Swagger UI page for it.
type DocsHandler struct {
	spec []byte
}

// NewDocsHandler returns nil when no document was loaded.
func NewDocsHandler(spec []byte) *DocsHandler {
	if len(spec) == 0 {
		return nil
	}
	return &DocsHandler{spec: spec}
}

// Spec handles GET /docs/openapi.yaml.
func (h *DocsHandler) Spec(c *gin.Context) {
	c.Data(http.StatusOK, "application/x-yaml", h.spec)
}

// UI handles GET /docs.
func (h *DocsHandler) UI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
}
