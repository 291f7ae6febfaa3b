package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	content := s.docs.Read(name)
	if content == nil {
		http.NotFound(w, r)
		return
	}
	highlighted, err := highlightHTML(string(content))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.views.RenderPage(w, ViewData{
		Title:           "Source: " + name,
		ContentTemplate: "source",
		Document:        name,
		SourceHTML:      highlighted,
	})
}

func highlightHTML(source string) (template.HTML, error) {
	lexer := lexers.Get("html")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}
	formatter := chromahtml.New(chromahtml.WithLineNumbers(true))

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
