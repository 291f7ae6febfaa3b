package web

import (
	"net/http"

	"wikidock/internal/auth"
	"wikidock/internal/config"
)

func newCredentials(cfg config.Config) (*auth.Credentials, error) {
	creds, err := auth.NewCredentials(cfg.AuthUser, cfg.AuthPass, cfg.AuthFile)
	if err != nil {
		return nil, err
	}
	if !creds.Enabled() {
		return nil, nil
	}
	return creds, nil
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.creds == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !s.creds.Authenticate(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="wikidock"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := WithUser(r.Context(), User{Name: user})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
