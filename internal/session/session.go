package session

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMountTimeout = errors.New("document did not become ready in time")
	ErrClosed       = errors.New("session closed")
)

// State tracks a session through its rendering lifecycle.
type State int

const (
	StateMounted State = iota
	StateReady
	StateFailed
	StateClosed
)

// Session is one isolated editing context for an open document: the content
// delivered into it, a revocable handle guarding that content, and the
// ready/failure signals its container waits on.
type Session struct {
	ID       string
	Document string

	mu       sync.Mutex
	state    State
	content  []byte
	token    string
	revoked  bool
	failure  error
	ready    chan struct{}
	failed   chan struct{}
	deadline *time.Timer
}

// Ready is closed exactly once, after the container reports that the
// document finished loading.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Failed is closed when the load fails (render error, ready timeout, or
// close before ready); Err reports the cause afterwards.
func (s *Session) Failed() <-chan struct{} { return s.failed }

// Err returns the recorded load failure, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Token is the one-time resource handle the content is served under.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Content returns the mounted content while the handle is live. The handle
// stays valid until it is explicitly revoked; revoking happens after ready
// fires, never before, so the load cannot race the revocation.
func (s *Session) Content(token string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked || s.state == StateClosed {
		return nil, false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		return nil, false
	}
	return s.content, true
}

// MarkReady records the container's load signal and revokes the content
// handle. Safe to call more than once; late signals after failure or close
// are no-ops.
func (s *Session) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateMounted {
		return
	}
	s.state = StateReady
	s.revokeLocked()
	s.stopDeadlineLocked()
	close(s.ready)
	slog.Debug("session ready", "id", s.ID, "doc", s.Document)
}

// Fail records a load failure. The stale handle is revoked so a hung load
// cannot consume it later, and the content is released since nothing will
// serve it again.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateMounted {
		return
	}
	s.state = StateFailed
	s.failure = err
	s.revokeLocked()
	s.stopDeadlineLocked()
	s.content = nil
	close(s.failed)
	slog.Warn("session failed", "id", s.ID, "doc", s.Document, "err", err)
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	if s.state == StateMounted {
		s.failure = ErrClosed
		close(s.failed)
	}
	s.state = StateClosed
	s.revokeLocked()
	s.stopDeadlineLocked()
	s.content = nil
}

func (s *Session) revokeLocked() {
	if s.revoked {
		return
	}
	s.revoked = true
	s.token = ""
}

func (s *Session) stopDeadlineLocked() {
	if s.deadline != nil {
		s.deadline.Stop()
		s.deadline = nil
	}
}

// Manager owns all live sessions and their ready deadlines.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
}

func NewManager(readyTimeout time.Duration) *Manager {
	if readyTimeout <= 0 {
		readyTimeout = 10 * time.Second
	}
	return &Manager{
		sessions: make(map[string]*Session),
		timeout:  readyTimeout,
	}
}

// Mount creates a session delivering content into a fresh rendering context.
// If the container never reports ready within the manager's timeout the
// session fails and its handle is revoked.
func (m *Manager) Mount(document string, content []byte) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Document: document,
		state:    StateMounted,
		content:  content,
		token:    uuid.NewString(),
		ready:    make(chan struct{}),
		failed:   make(chan struct{}),
	}
	s.deadline = time.AfterFunc(m.timeout, func() {
		s.Fail(ErrMountTimeout)
	})

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	go m.reapOnFailure(s)

	slog.Info("session mounted", "id", s.ID, "doc", document, "bytes", len(content))
	return s
}

// reapOnFailure drops a session that failed without ever becoming ready.
// A shell whose socket never opens would otherwise leave the session in the
// map forever. The grace window lets a connected shell collect the failure
// before the id disappears.
func (m *Manager) reapOnFailure(s *Session) {
	select {
	case <-s.ready:
	case <-s.failed:
		time.AfterFunc(m.timeout, func() { m.Close(s.ID) })
	}
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears a session down. Idempotent; closing an unknown id is a no-op
// so late container-destroyed signals are tolerated.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.close()
	slog.Info("session closed", "id", id, "doc", s.Document)
}
