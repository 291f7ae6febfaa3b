package web

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

type sseHub struct {
	mu      sync.Mutex
	clients map[chan sseEvent]struct{}
}

type sseEvent struct {
	name string
	data []byte
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[chan sseEvent]struct{})}
}

func (h *sseHub) add() chan sseEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan sseEvent, 8)
	h.clients[ch] = struct{}{}
	return ch
}

func (h *sseHub) remove(ch chan sseEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
	close(ch)
}

func (h *sseHub) broadcast(name string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- sseEvent{name: name, data: data}:
		default:
		}
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := s.events.add()
	defer s.events.remove(ch)

	fmt.Fprint(w, "event: ready\ndata: ok\n\n")
	flusher.Flush()

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) handleToastDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.toasts.Remove(r.URL.Query().Get("id"))
	w.WriteHeader(http.StatusNoContent)
}
