package web

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Toast struct {
	ID              string `json:"id"`
	Message         string `json:"message"`
	Kind            string `json:"kind"`
	DurationSeconds int    `json:"durationSeconds"`
	CreatedAt       time.Time
}

// toastStore holds undelivered notifications. The server is a single-user
// tool, so toasts are not partitioned per account.
type toastStore struct {
	mu     sync.Mutex
	toasts []Toast
}

func newToastStore() *toastStore {
	return &toastStore{}
}

func (s *toastStore) Add(toast Toast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, toast)
}

func (s *toastStore) List() []Toast {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.toasts) == 0 {
		return nil
	}
	active := s.toasts[:0]
	for _, toast := range s.toasts {
		if toast.DurationSeconds > 0 {
			exp := toast.CreatedAt.Add(time.Duration(toast.DurationSeconds) * time.Second)
			if now.After(exp) {
				continue
			}
		}
		active = append(active, toast)
	}
	s.toasts = active
	out := make([]Toast, len(active))
	copy(out, active)
	return out
}

func (s *toastStore) Remove(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.toasts[:0]
	for _, toast := range s.toasts {
		if toast.ID == id {
			continue
		}
		next = append(next, toast)
	}
	s.toasts = next
}

// Notify satisfies the interceptor's notification dependency: the outcome of
// every save attempt surfaces in the shell as a toast.
func (s *Server) Notify(kind, message string) {
	toast := Toast{
		ID:              uuid.NewString(),
		Message:         message,
		Kind:            kind,
		DurationSeconds: int(s.cfg.ToastDuration / time.Second),
		CreatedAt:       time.Now(),
	}
	s.toasts.Add(toast)

	payload, err := json.Marshal(toast)
	if err != nil {
		slog.Error("marshal toast", "err", err)
		return
	}
	s.events.broadcast("toast", payload)
}
