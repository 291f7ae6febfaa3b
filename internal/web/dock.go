package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"wikidock/internal/intercept"
)

var upgrader = websocket.Upgrader{
	// The shell page and the socket share an origin; embedded documents
	// cannot reach this endpoint cross-origin with credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

// handleOpen mounts the document into a fresh session, attaches the
// interceptor to it, and renders the shell page that hosts the document.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	content := s.docs.Read(name)
	if content == nil {
		http.NotFound(w, r)
		return
	}

	sess := s.sessions.Mount(name, content)
	att := s.registry.Attach(sess, name)
	s.rememberAttachment(sess.ID, att.ID)

	s.views.RenderPage(w, ViewData{
		Title:           name,
		ContentTemplate: "dock",
		Document:        name,
		SessionID:       sess.ID,
		AttachmentID:    att.ID,
		ContentURL:      "/session/" + sess.ID + "/content?token=" + sess.Token(),
		SocketURL:       "/session/" + sess.ID + "/ws",
	})
}

// handleSession routes /session/{id}/content and /session/{id}/ws.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/session/")
	id, action, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}
	switch action {
	case "content":
		s.handleSessionContent(w, r, id)
	case "ws":
		s.handleSessionSocket(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleSessionContent serves the mounted document under its one-time
// handle. After the container reports ready the handle is revoked and the
// URL answers 410.
func (s *Server) handleSessionContent(w http.ResponseWriter, r *http.Request, id string) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	content, ok := sess.Content(r.URL.Query().Get("token"))
	if !ok {
		http.Error(w, "content handle revoked", http.StatusGone)
		return
	}

	s.mu.Lock()
	attachmentID := s.sessionAttach[id]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(injectHooks(content, attachmentID))
}

// injectHooks plants the interception script into the served document, just
// before </body> when one exists. The tag carries a marker attribute so the
// recovery path can strip it out of full-document dumps before persisting.
func injectHooks(content []byte, attachmentID string) []byte {
	if attachmentID == "" {
		return content
	}
	tag := `<script ` + intercept.ScriptMarkerAttr + ` src="/attach/` + attachmentID + `/hooks.js"></script>`
	// ASCII-only lowering; Unicode case mapping can change byte lengths and
	// shift the splice offset away from the original content.
	lower := make([]byte, len(content))
	for i, b := range content {
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		lower[i] = b
	}
	if i := bytes.LastIndex(lower, []byte("</body>")); i >= 0 {
		out := make([]byte, 0, len(content)+len(tag))
		out = append(out, content[:i]...)
		out = append(out, tag...)
		out = append(out, content[i:]...)
		return out
	}
	return append(content, []byte(tag)...)
}

// handleSessionSocket is the shell's liveness channel: the shell reports
// ready or a render error over it, failures are pushed back, and the socket
// closing means the container is gone.
func (s *Server) handleSessionSocket(w http.ResponseWriter, r *http.Request, id string) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("session socket upgrade failed", "session", id, "err", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "ready":
				sess.MarkReady()
			case "error":
				if msg.Error == "" {
					msg.Error = "document failed to load"
				}
				sess.Fail(errors.New(msg.Error))
			}
		}
	}()

	select {
	case <-done:
	case <-sess.Failed():
		failure := "load failed"
		if err := sess.Err(); err != nil {
			failure = err.Error()
		}
		_ = conn.WriteJSON(wsMessage{Type: "failed", Error: failure})
		<-done
	}
	s.closeSession(id)
}
