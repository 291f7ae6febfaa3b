package web

import (
	"net/http"
	"sync"

	"wikidock/internal/auth"
	"wikidock/internal/catalog"
	"wikidock/internal/config"
	"wikidock/internal/history"
	"wikidock/internal/intercept"
	"wikidock/internal/session"
	"wikidock/internal/storage/fs"
)

type Server struct {
	cfg      config.Config
	docs     *catalog.Store
	blobs    *fs.Store
	sessions *session.Manager
	registry *intercept.Registry
	journal  *history.Journal
	mux      *http.ServeMux
	views    *Views
	creds    *auth.Credentials
	toasts   *toastStore
	events   *sseHub

	// sessionAttach maps a session to the attachment opened for it so a
	// container-destroyed signal tears both down together.
	mu            sync.Mutex
	sessionAttach map[string]string
}

func NewServer(cfg config.Config, docs *catalog.Store, blobs *fs.Store, journal *history.Journal) (*Server, error) {
	creds, err := newCredentials(cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:           cfg,
		docs:          docs,
		blobs:         blobs,
		sessions:      session.NewManager(cfg.MountTimeout),
		journal:       journal,
		mux:           http.NewServeMux(),
		views:         MustParseViews(),
		creds:         creds,
		toasts:        newToastStore(),
		events:        newSSEHub(),
		sessionAttach: make(map[string]string),
	}

	deps := intercept.Deps{Store: docs, Notify: s}
	if journal != nil {
		deps.Record = journal
	}
	s.registry = intercept.NewRegistry(deps)

	s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.withAuth(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/documents/new", s.handleNewDocument)
	s.mux.HandleFunc("/documents/import", s.handleImport)
	s.mux.HandleFunc("/documents/", s.handleDocuments)
	s.mux.HandleFunc("/session/", s.handleSession)
	s.mux.HandleFunc("/attach/", s.handleAttach)
	s.mux.HandleFunc("/history", s.handleHistory)
	s.mux.HandleFunc("/help", s.handleHelp)
	s.mux.HandleFunc("/prefs", s.handlePrefs)
	s.mux.HandleFunc("/toasts/dismiss", s.handleToastDismiss)
	s.mux.HandleFunc("/events", s.handleEvents)
}

func (s *Server) rememberAttachment(sessionID, attachmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionAttach[sessionID] = attachmentID
}

// closeSession tears down a session and the attachment opened for it.
func (s *Server) closeSession(sessionID string) {
	s.mu.Lock()
	attachmentID := s.sessionAttach[sessionID]
	delete(s.sessionAttach, sessionID)
	s.mu.Unlock()

	s.sessions.Close(sessionID)
	if attachmentID != "" {
		s.registry.Detach(attachmentID)
	}
}
