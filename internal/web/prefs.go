package web

import (
	"encoding/json"
	"io"
	"net/http"
)

const prefsKey = "config/shell.json"

// handlePrefs persists the shell's UI preferences as an opaque JSON blob in
// plugin-data storage.
func (s *Server) handlePrefs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data := s.blobs.Load(prefsKey)
		if data == nil {
			data = []byte("{}")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	case http.MethodPut, http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !json.Valid(body) {
			http.Error(w, "preferences must be valid JSON", http.StatusBadRequest)
			return
		}
		if !s.blobs.Save(prefsKey, body) {
			http.Error(w, "failed to store preferences", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
