package web

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"sync"

	"github.com/yuin/goldmark"
)

//go:embed help.md
var helpSource []byte

var (
	helpOnce sync.Once
	helpHTML template.HTML
	helpErr  error
)

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	helpOnce.Do(func() {
		var buf bytes.Buffer
		if err := goldmark.New().Convert(helpSource, &buf); err != nil {
			helpErr = err
			return
		}
		helpHTML = template.HTML(buf.String())
	})
	if helpErr != nil {
		http.Error(w, helpErr.Error(), http.StatusInternalServerError)
		return
	}
	s.views.RenderPage(w, ViewData{
		Title:           "Help",
		ContentTemplate: "help",
		HelpHTML:        helpHTML,
	})
}
