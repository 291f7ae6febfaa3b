package intercept

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"wikidock/internal/session"
)

type memWriter struct {
	mu     sync.Mutex
	writes []string
	docs   map[string][]byte
	err    error
}

func newMemWriter() *memWriter {
	return &memWriter{docs: make(map[string][]byte)}
}

func (w *memWriter) Write(name string, content []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.writes = append(w.writes, name)
	w.docs[name] = append([]byte(nil), content...)
	return nil
}

func (w *memWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

func (w *memWriter) doc(name string) []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.docs[name]
}

type memNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *memNotifier) Notify(kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

func (n *memNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.kinds) == 0 {
		return ""
	}
	return n.kinds[len(n.kinds)-1]
}

type memRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *memRecorder) RecordSave(document, trigger string, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, document+"/"+trigger)
}

func (r *memRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func waitState(t *testing.T, a *Attachment, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("attachment state = %s, want %s", a.State(), want)
}

func newTestRegistry() (*Registry, *memWriter, *memNotifier, *memRecorder) {
	store := newMemWriter()
	notify := &memNotifier{}
	record := &memRecorder{}
	return NewRegistry(Deps{Store: store, Notify: notify, Record: record}), store, notify, record
}

func attachReady(t *testing.T, r *Registry, doc string) *Attachment {
	t.Helper()
	sessions := session.NewManager(time.Minute)
	sess := sessions.Mount(doc, []byte("<html></html>"))
	a := r.Attach(sess, doc)
	sess.MarkReady()
	waitState(t, a, StateAttached)
	return a
}

func TestAttachInstallsHooksOnReady(t *testing.T) {
	r, store, notify, record := newTestRegistry()

	sessions := session.NewManager(time.Minute)
	sess := sessions.Mount("notes.html", []byte("<html></html>"))
	a := r.Attach(sess, "notes.html")

	if got := a.State(); got != StateAttaching {
		t.Fatalf("state before ready = %s, want attaching", got)
	}
	if err := a.HandleSave(SaveRequest{Trigger: triggerKeyboard, Content: "<html></html>"}); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("save before attached: err = %v, want ErrNotAttached", err)
	}

	sess.MarkReady()
	waitState(t, a, StateAttached)

	err := a.HandleSave(SaveRequest{
		Trigger: triggerKeyboard,
		Content: "<html><body>edited</body></html>",
	})
	if err != nil {
		t.Fatalf("HandleSave: %v", err)
	}

	saved := string(store.doc("notes.html"))
	if !strings.HasPrefix(saved, "<!DOCTYPE html>\n") {
		t.Errorf("saved content not normalized: %q", saved)
	}
	if !strings.Contains(saved, "edited") {
		t.Errorf("saved content missing payload: %q", saved)
	}
	if record.count() != 1 {
		t.Errorf("recorded saves = %d, want 1", record.count())
	}
	if notify.last() != "success" {
		t.Errorf("last notification = %q, want success", notify.last())
	}
}

func TestSessionFailureDetaches(t *testing.T) {
	r, store, _, _ := newTestRegistry()

	sessions := session.NewManager(time.Minute)
	sess := sessions.Mount("notes.html", []byte("<html></html>"))
	a := r.Attach(sess, "notes.html")

	sess.Fail(errors.New("render error"))
	waitState(t, a, StateDetached)

	if err := r.HandleSave(a.ID, SaveRequest{Trigger: triggerKeyboard, Content: "x"}); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("save after failure: err = %v, want ErrNotAttached", err)
	}
	if store.count() != 0 {
		t.Errorf("writes after failed mount = %d, want 0", store.count())
	}
	if _, ok := r.ScriptBundle(a.ID); ok {
		t.Error("script bundle still served after detach")
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	a := attachReady(t, r, "notes.html")

	r.Detach(a.ID)
	if got := a.State(); got != StateDetached {
		t.Fatalf("state after detach = %s, want detached", got)
	}
	r.Detach(a.ID)
	a.Detach()

	if len(a.triggers) != 0 || a.blobRefs != nil {
		t.Error("detach left trigger state behind")
	}
	r.Detach("no-such-attachment")
}

func TestObjectURLRefConsumedOnce(t *testing.T) {
	r, store, _, record := newTestRegistry()
	a := attachReady(t, r, "notes.html")

	req := SaveRequest{
		Trigger: triggerObjectURL,
		Ref:     "blob:null/abc-123",
		Content: "<html><body>v1</body></html>",
	}
	if err := a.HandleSave(req); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := a.HandleSave(req); err != nil {
		t.Fatalf("replayed save: %v", err)
	}
	if store.count() != 1 {
		t.Errorf("writes = %d, want 1 (replay must be dropped)", store.count())
	}
	if record.count() != 1 {
		t.Errorf("recorded saves = %d, want 1", record.count())
	}

	fresh := req
	fresh.Ref = "blob:null/def-456"
	if err := a.HandleSave(fresh); err != nil {
		t.Fatalf("save with fresh ref: %v", err)
	}
	if store.count() != 2 {
		t.Errorf("writes = %d, want 2", store.count())
	}
}

func TestSaveTriggerMustBeInstalled(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	a := attachReady(t, r, "notes.html")

	err := a.HandleSave(SaveRequest{Trigger: "telepathy", Content: "<html></html>"})
	if !errors.Is(err, ErrHookDisabled) {
		t.Fatalf("err = %v, want ErrHookDisabled", err)
	}
}

func TestHandleSaveUnknownAttachment(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	err := r.HandleSave("nope", SaveRequest{Trigger: triggerKeyboard, Content: "x"})
	if !errors.Is(err, ErrUnknownAttachment) {
		t.Fatalf("err = %v, want ErrUnknownAttachment", err)
	}
}

func TestRecoverPrefersInlineContent(t *testing.T) {
	r, store, _, _ := newTestRegistry()
	a := attachReady(t, r, "notes.html")

	err := a.HandleSave(SaveRequest{
		Trigger: triggerDownloadLink,
		Content: "<html><body>inline</body></html>",
		URL:     "data:text/html,%3Chtml%3Eurl%3C%2Fhtml%3E",
	})
	if err != nil {
		t.Fatalf("HandleSave: %v", err)
	}
	if got := string(store.doc("notes.html")); !strings.Contains(got, "inline") {
		t.Errorf("saved %q, want inline content preferred over url", got)
	}
}

func TestRecoverFromDataURL(t *testing.T) {
	r, store, _, _ := newTestRegistry()
	a := attachReady(t, r, "notes.html")

	err := a.HandleSave(SaveRequest{
		Trigger: triggerDynamicAnchor,
		URL:     "data:text/html,%3Chtml%3E%3Cbody%3Efrom-url%3C%2Fbody%3E%3C%2Fhtml%3E",
	})
	if err != nil {
		t.Fatalf("HandleSave: %v", err)
	}
	if got := string(store.doc("notes.html")); !strings.Contains(got, "from-url") {
		t.Errorf("saved %q, want decoded data url payload", got)
	}
}

func TestRecoveryFailureReportsAndKeepsHooks(t *testing.T) {
	r, store, notify, _ := newTestRegistry()
	a := attachReady(t, r, "notes.html")

	err := a.HandleSave(SaveRequest{Trigger: triggerDownloadLink, URL: "https://example.com/w.html"})
	if !errors.Is(err, ErrUnsupportedURL) {
		t.Fatalf("err = %v, want ErrUnsupportedURL", err)
	}
	if notify.last() != "error" {
		t.Errorf("last notification = %q, want error", notify.last())
	}
	if err := a.HandleSave(SaveRequest{Trigger: triggerDownloadLink}); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("empty payload: err = %v, want ErrEmptyPayload", err)
	}

	// Every hook stays functional after failed attempts.
	if err := a.HandleSave(SaveRequest{Trigger: triggerKeyboard, Content: "<html></html>"}); err != nil {
		t.Fatalf("save after failures: %v", err)
	}
	if store.count() != 1 {
		t.Errorf("writes = %d, want 1", store.count())
	}
}

func TestWriteFailureReported(t *testing.T) {
	r, store, notify, record := newTestRegistry()
	a := attachReady(t, r, "notes.html")

	store.err = errors.New("disk full")
	if err := a.HandleSave(SaveRequest{Trigger: triggerKeyboard, Content: "<html></html>"}); err == nil {
		t.Fatal("want write error")
	}
	if notify.last() != "error" {
		t.Errorf("last notification = %q, want error", notify.last())
	}
	if record.count() != 0 {
		t.Errorf("recorded saves = %d, want 0", record.count())
	}
}

func TestScriptBundle(t *testing.T) {
	r, _, _, _ := newTestRegistry()

	sessions := session.NewManager(time.Minute)
	sess := sessions.Mount("notes.html", []byte("<html></html>"))
	a := r.Attach(sess, "notes.html")

	// Served while attaching so the context can load it before ready.
	bundle, ok := r.ScriptBundle(a.ID)
	if !ok {
		t.Fatal("bundle unavailable while attaching")
	}
	script := string(bundle)
	if !strings.Contains(script, "/attach/"+a.ID+"/save") {
		t.Error("bundle missing save route")
	}
	for _, name := range []string{triggerDownloadLink, triggerObjectURL, triggerDynamicAnchor, triggerKeyboard} {
		if !strings.Contains(script, "// hook: "+name) {
			t.Errorf("bundle missing hook %q", name)
		}
	}

	if _, ok := r.ScriptBundle("nope"); ok {
		t.Error("bundle served for unknown attachment")
	}
}

func TestConcurrentAttachmentsAreIndependent(t *testing.T) {
	r, store, _, _ := newTestRegistry()
	a := attachReady(t, r, "one.html")
	b := attachReady(t, r, "two.html")

	if err := a.HandleSave(SaveRequest{Trigger: triggerKeyboard, Content: "<html>one</html>"}); err != nil {
		t.Fatalf("save one: %v", err)
	}
	r.Detach(a.ID)

	if err := b.HandleSave(SaveRequest{Trigger: triggerKeyboard, Content: "<html>two</html>"}); err != nil {
		t.Fatalf("save two after detaching one: %v", err)
	}
	if got := string(store.doc("two.html")); !strings.Contains(got, "two") {
		t.Errorf("document two = %q", got)
	}
}

func TestSaveStripsInjectedScript(t *testing.T) {
	r, store, _, _ := newTestRegistry()
	a := attachReady(t, r, "notes.html")

	// A keyboard-fallback dump serializes the rendered DOM, which still
	// contains the planted hook script.
	dump := `<html><body>edited<script data-dock-hooks src="/attach/` + a.ID + `/hooks.js"></script></body></html>`
	if err := a.HandleSave(SaveRequest{Trigger: "keyboard", Content: dump}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := string(store.doc("notes.html"))
	if strings.Contains(got, "hooks.js") {
		t.Errorf("stored document keeps planted script: %q", got)
	}
	if !strings.Contains(got, "edited") {
		t.Errorf("stored document lost edit: %q", got)
	}
}
