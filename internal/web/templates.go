package web

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime"
)

// Views holds the parsed shell templates. Every page is a named content
// template rendered first, then wrapped by the "base" layout.
type Views struct {
	pages *template.Template
}

// MustParseViews parses templates/*.html relative to the repository root,
// resolved from this source file so tests run from any working directory.
func MustParseViews() *Views {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("unable to resolve template path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
	pages := template.Must(template.ParseGlob(filepath.Join(root, "templates", "*.html")))
	return &Views{pages: pages}
}

func (v *Views) RenderPage(w http.ResponseWriter, data ViewData) {
	var content bytes.Buffer
	if err := v.pages.ExecuteTemplate(&content, data.ContentTemplate, data); err != nil {
		slog.Error("render page", "template", data.ContentTemplate, "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	data.ContentHTML = template.HTML(content.String())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := v.pages.ExecuteTemplate(w, "base", data); err != nil {
		slog.Error("render layout", "template", data.ContentTemplate, "err", err)
	}
}
