package intercept

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"wikidock/internal/session"
)

var (
	ErrUnknownAttachment = errors.New("unknown attachment")
	ErrNotAttached       = errors.New("attachment is not accepting saves")
	ErrHookDisabled      = errors.New("save trigger is not installed")
)

// State is the attachment lifecycle. Detached is terminal.
type State int

const (
	StateUnattached State = iota
	StateAttaching
	StateAttached
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateAttaching:
		return "attaching"
	case StateAttached:
		return "attached"
	case StateDetached:
		return "detached"
	}
	return "unknown"
}

// DocumentWriter is the persistence path recovered content is written
// through.
type DocumentWriter interface {
	Write(name string, content []byte) error
}

// Notifier carries transient user-visible outcomes of save attempts.
type Notifier interface {
	Notify(kind, message string)
}

// Recorder journals successful intercepted saves. May be nil.
type Recorder interface {
	RecordSave(document, trigger string, size int)
}

// Deps are the collaborators every attachment shares.
type Deps struct {
	Store  DocumentWriter
	Notify Notifier
	Record Recorder
}

// Hook is one independently installed, independently reversible
// interception point. Script is the half delivered into the rendering
// context; Install/Uninstall manage the server half. Uninstall is recorded
// at install time and must be the exact inverse.
type Hook struct {
	Name      string
	Script    string
	Install   func(a *Attachment) error
	Uninstall func(a *Attachment) error
}

type undoStep struct {
	name string
	fn   func(a *Attachment) error
}

// SaveRequest is a save trigger reported from inside the rendering context.
type SaveRequest struct {
	Trigger  string `json:"trigger"`
	URL      string `json:"url,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Content  string `json:"content,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Attachment binds one set of installed hooks to one live session. All of
// its side-tables are owned exclusively by it, so concurrent attachments
// for different documents cannot interfere.
type Attachment struct {
	ID       string
	Document string

	mu       sync.Mutex
	state    State
	sess     *session.Session
	hooks    []Hook
	undo     []undoStep
	triggers map[string]bool
	blobRefs map[string]bool
	deps     Deps
}

// Registry owns all live attachments and routes incoming saves to them.
type Registry struct {
	mu          sync.Mutex
	attachments map[string]*Attachment
	deps        Deps
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		attachments: make(map[string]*Attachment),
		deps:        deps,
	}
}

// Attach creates an attachment for a mounted session and begins waiting for
// its ready signal; hooks are installed together once the context is live.
// The returned attachment is immediately routable (its script bundle can be
// served) but rejects saves until attached.
func (r *Registry) Attach(sess *session.Session, document string) *Attachment {
	a := &Attachment{
		ID:       uuid.NewString(),
		Document: document,
		state:    StateAttaching,
		sess:     sess,
		hooks:    defaultHooks(),
		triggers: make(map[string]bool),
		deps:     r.deps,
	}

	r.mu.Lock()
	r.attachments[a.ID] = a
	r.mu.Unlock()

	go a.awaitReady()
	slog.Debug("interceptor attaching", "attachment", a.ID, "doc", document)
	return a
}

func (r *Registry) Get(id string) (*Attachment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attachments[id]
	return a, ok
}

// Detach tears an attachment down and drops it from the registry. Unknown
// ids are tolerated so late container-destroyed signals are no-ops.
func (r *Registry) Detach(id string) {
	r.mu.Lock()
	a, ok := r.attachments[id]
	delete(r.attachments, id)
	r.mu.Unlock()
	if ok {
		a.Detach()
	}
}

// HandleSave routes a reported save trigger to its attachment.
func (r *Registry) HandleSave(id string, req SaveRequest) error {
	a, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAttachment, id)
	}
	return a.HandleSave(req)
}

func (a *Attachment) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Attachment) awaitReady() {
	select {
	case <-a.sess.Ready():
		a.install()
	case <-a.sess.Failed():
		// Nothing to reverse; the context never became live.
		a.Detach()
	}
}

// install applies every hook, recording each hook's exact reversal action
// before moving on. A hook that fails to install contributes no undo step
// and does not stop the remaining hooks.
func (a *Attachment) install() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateAttaching {
		return
	}
	for _, h := range a.hooks {
		if err := h.Install(a); err != nil {
			slog.Error("hook install failed", "attachment", a.ID, "hook", h.Name, "err", err)
			continue
		}
		a.undo = append(a.undo, undoStep{name: h.Name, fn: h.Uninstall})
	}
	a.state = StateAttached
	slog.Info("interceptor attached", "attachment", a.ID, "doc", a.Document, "hooks", len(a.undo))
}

// Detach reverses every installed hook and clears the attachment's state.
// Idempotent and safe from any state: reversal actions all run even when
// some fail, and a second call is a no-op.
func (a *Attachment) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateDetached {
		return
	}
	for i := len(a.undo) - 1; i >= 0; i-- {
		step := a.undo[i]
		if err := step.fn(a); err != nil {
			slog.Error("hook uninstall failed", "attachment", a.ID, "hook", step.name, "err", err)
		}
	}
	a.undo = nil
	a.triggers = make(map[string]bool)
	a.blobRefs = nil
	a.sess = nil
	a.state = StateDetached
	slog.Info("interceptor detached", "attachment", a.ID, "doc", a.Document)
}

// HandleSave recovers the reported content and writes it through the
// persistence path. A recovery failure is reported and logged but leaves
// every hook functional.
func (a *Attachment) HandleSave(req SaveRequest) error {
	a.mu.Lock()
	if a.state != StateAttached {
		state := a.state
		a.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrNotAttached, state)
	}
	if !a.triggers[req.Trigger] {
		a.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrHookDisabled, req.Trigger)
	}
	if req.Trigger == triggerObjectURL && req.Ref != "" {
		if a.blobRefs[req.Ref] {
			// Already consumed and evicted; a replayed click is dropped.
			a.mu.Unlock()
			return nil
		}
		a.blobRefs[req.Ref] = true
	}
	a.mu.Unlock()

	content, err := a.recover(req)
	if err != nil {
		a.report("error", fmt.Sprintf("Save failed: %v", err))
		slog.Error("content recovery failed", "attachment", a.ID, "doc", a.Document, "trigger", req.Trigger, "err", err)
		return err
	}

	content = StripInjectedScript(content)
	content = NormalizeDocument(content)
	if !LooksComplete(content) {
		slog.Warn("recovered payload does not look like a complete document",
			"attachment", a.ID, "doc", a.Document, "bytes", len(content))
	}

	if err := a.deps.Store.Write(a.Document, content); err != nil {
		a.report("error", fmt.Sprintf("Save failed: %v", err))
		return err
	}

	if a.deps.Record != nil {
		a.deps.Record.RecordSave(a.Document, req.Trigger, len(content))
	}
	a.report("success", fmt.Sprintf("Saved %s", a.Document))
	slog.Info("save intercepted", "attachment", a.ID, "doc", a.Document, "trigger", req.Trigger, "bytes", len(content))
	return nil
}

func (a *Attachment) recover(req SaveRequest) ([]byte, error) {
	if req.Content != "" {
		return []byte(req.Content), nil
	}
	if strings.HasPrefix(req.URL, "data:") {
		return DecodeDataURL(req.URL)
	}
	if req.URL != "" {
		return nil, fmt.Errorf("%w: %q must be resolved inside the context", ErrUnsupportedURL, truncate(req.URL, 64))
	}
	return nil, ErrEmptyPayload
}

func (a *Attachment) report(kind, message string) {
	if a.deps.Notify != nil {
		a.deps.Notify.Notify(kind, message)
	}
}
