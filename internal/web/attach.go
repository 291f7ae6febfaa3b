package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"wikidock/internal/intercept"
)

// handleAttach routes /attach/{id}/hooks.js and /attach/{id}/save.
func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/attach/")
	id, action, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}
	switch action {
	case "hooks.js":
		s.handleHookScript(w, r, id)
	case "save":
		s.handleSave(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleHookScript(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bundle, ok := s.registry.ScriptBundle(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(bundle)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.ImportMaxBytes)

	var req intercept.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := s.registry.HandleSave(id, req)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, intercept.ErrUnknownAttachment):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, intercept.ErrNotAttached), errors.Is(err, intercept.ErrHookDisabled):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, intercept.ErrUnsupportedURL), errors.Is(err, intercept.ErrEmptyPayload):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
