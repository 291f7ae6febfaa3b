package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"wikidock/internal/catalog"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := ViewData{
		Title:           "Documents",
		ContentTemplate: "home",
		Documents:       s.docs.List(),
		Templates:       s.docs.ListTemplates(),
		Toasts:          s.toasts.List(),
	}
	if s.journal != nil {
		if recent, err := s.journal.Recent(r.Context(), 10); err == nil {
			data.History = recent
		}
	}
	s.views.RenderPage(w, data)
}

func (s *Server) handleNewDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.Form.Get("name"))
	if name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	templateName := strings.TrimSpace(r.Form.Get("template"))

	finalName, err := s.docs.Create(name, templateName)
	switch {
	case errors.Is(err, catalog.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, catalog.ErrDuplicateName):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, catalog.ErrTemplateUnreadable):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Notify("success", "Created "+finalName)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.ImportMaxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind := catalog.ImportAsDocument
	if r.Form.Get("kind") == "template" {
		kind = catalog.ImportAsTemplate
	}
	overwrite := r.Form.Get("overwrite") == "1"
	confirm := catalog.ConfirmerFunc(func(string) bool { return overwrite })

	finalName, err := s.docs.Import(raw, header.Filename, kind, confirm)
	switch {
	case errors.Is(err, catalog.ErrInvalidFormat), errors.Is(err, catalog.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, catalog.ErrCancelled):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Notify("success", "Imported "+finalName)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDocuments routes per-document actions by path suffix:
// /documents/{name}, /documents/{name}/open, /source, /history,
// /rename, /delete.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/documents/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	name := rest
	action := ""
	if i := strings.LastIndex(rest, "/"); i >= 0 {
		name, action = rest[:i], rest[i+1:]
	}

	switch action {
	case "":
		s.handleDownload(w, r, name)
	case "open":
		s.handleOpen(w, r, name)
	case "source":
		s.handleSource(w, r, name)
	case "history":
		s.handleDocumentHistory(w, r, name)
	case "rename":
		s.handleRename(w, r, name)
	case "delete":
		s.handleDelete(w, r, name)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	content := s.docs.Read(name)
	if content == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(content)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to := strings.TrimSpace(r.Form.Get("to"))
	if to == "" {
		http.Error(w, "new name required", http.StatusBadRequest)
		return
	}

	finalName, err := s.docs.Rename(name, to)
	switch {
	case errors.Is(err, catalog.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, catalog.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, catalog.ErrDuplicateName):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if s.journal != nil {
		if err := s.journal.Move(r.Context(), name, finalName); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	s.Notify("success", "Renamed to "+finalName)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.docs.Delete(name)
	if s.journal != nil {
		_ = s.journal.Forget(r.Context(), name)
	}
	s.Notify("success", "Deleted "+name)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	entries, err := s.journal.Recent(r.Context(), s.cfg.HistoryMax)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.views.RenderPage(w, ViewData{
		Title:           "Save history",
		ContentTemplate: "history",
		History:         entries,
	})
}

func (s *Server) handleDocumentHistory(w http.ResponseWriter, r *http.Request, name string) {
	if s.journal == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	entries, err := s.journal.ForDocument(r.Context(), name, s.cfg.HistoryMax)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.views.RenderPage(w, ViewData{
		Title:           "History: " + name,
		ContentTemplate: "history",
		Document:        name,
		History:         entries,
	})
}
