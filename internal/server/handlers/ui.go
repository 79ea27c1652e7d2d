package handlers

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/meganame/megacheck/internal/observability"
)

//go:embed static/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// IndexPage renders the browser checker page.
type IndexPage struct {
	Title    string
	MaxNames int
}

func (p *IndexPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, p); err != nil {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Error("Failed to render index page", zap.Error(err))
		}
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
