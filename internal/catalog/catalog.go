package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"wikidock/internal/storage/fs"
)

const (
	docDir      = "wiki"
	templateDir = "templates"
	indexKey    = "wiki/.file-list"
)

// Store manages the catalog of wiki documents and their templates on top of
// the blob store. It is the only component that mutates the catalog index.
type Store struct {
	blobs *fs.Store
}

func New(blobs *fs.Store) *Store {
	return &Store{blobs: blobs}
}

// Bootstrap materializes the storage layout and guarantees that at least one
// template is resolvable before the server starts taking requests.
func (c *Store) Bootstrap() {
	c.blobs.EnsureDir(docDir)
	c.blobs.EnsureDir(templateDir)
	c.ensureBaselineTemplate()
}

func docKey(name string) string {
	return docDir + "/" + name
}

func templateKey(name string) string {
	return templateDir + "/" + name
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Create makes a new document from a template. The returned name carries the
// enforced suffix.
func (c *Store) Create(name, templateName string) (string, error) {
	name = fs.EnsureHTMLExt(name)
	if err := checkName(name); err != nil {
		return name, err
	}
	if templateName == "" {
		templateName = baselineTemplateName
	}
	if c.blobs.Exists(docKey(name)) {
		return name, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	content := c.ReadTemplate(templateName)
	if content == nil {
		return name, fmt.Errorf("%w: %q", ErrTemplateUnreadable, templateName)
	}
	if !c.blobs.Save(docKey(name), content) {
		return name, fmt.Errorf("%w: write %q", ErrStorage, name)
	}

	list := c.loadIndex()
	if !contains(list, name) {
		list = append(list, name)
		c.saveIndex(list)
	}
	slog.Info("document created", "name", name, "template", templateName)
	return name, nil
}

// Rename moves a document to a new name. The new blob is confirmed written
// before the old one is removed so a partial failure never loses content.
func (c *Store) Rename(oldName, newName string) (string, error) {
	newName = fs.EnsureHTMLExt(newName)
	if err := checkName(newName); err != nil {
		return newName, err
	}
	if newName == oldName {
		return newName, nil
	}
	if c.blobs.Exists(docKey(newName)) {
		return newName, fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}

	content := c.blobs.Load(docKey(oldName))
	if content == nil {
		return newName, fmt.Errorf("%w: %q", ErrNotFound, oldName)
	}
	if !c.blobs.Save(docKey(newName), content) {
		return newName, fmt.Errorf("%w: write %q", ErrStorage, newName)
	}
	c.blobs.Remove(docKey(oldName))

	list := c.loadIndex()
	next := make([]string, 0, len(list))
	for _, n := range list {
		if n != oldName {
			next = append(next, n)
		}
	}
	if !contains(next, newName) {
		next = append(next, newName)
	}
	c.saveIndex(next)
	slog.Info("document renamed", "from", oldName, "to", newName)
	return newName, nil
}

// Delete removes a document and its index entry. Deleting a name that does
// not exist is not an error.
func (c *Store) Delete(name string) {
	c.blobs.Remove(docKey(name))

	list := c.loadIndex()
	next := make([]string, 0, len(list))
	for _, n := range list {
		if n != name {
			next = append(next, n)
		}
	}
	if len(next) != len(list) {
		c.saveIndex(next)
	}
	slog.Info("document deleted", "name", name)
}

// List returns the catalog index after pruning entries whose blob no longer
// resolves. The corrected index is persisted before it is returned so stale
// entries never reappear.
func (c *Store) List() []string {
	list := c.loadIndex()
	valid := make([]string, 0, len(list))
	for _, name := range list {
		if name == "" {
			continue
		}
		if c.blobs.Exists(docKey(name)) {
			valid = append(valid, name)
		}
	}
	if len(valid) != len(list) {
		c.saveIndex(valid)
	}
	return valid
}

// Read returns a document's content, or nil when it does not exist.
func (c *Store) Read(name string) []byte {
	return c.blobs.Load(docKey(name))
}

// Exists reports whether a document blob is present.
func (c *Store) Exists(name string) bool {
	return c.blobs.Exists(docKey(name))
}

// Write persists new content for a document. This is the save-interception
// persistence path; structural checks happen upstream so a save is never
// silently dropped here.
func (c *Store) Write(name string, content []byte) error {
	if !c.blobs.Save(docKey(name), content) {
		return fmt.Errorf("%w: write %q", ErrStorage, name)
	}
	list := c.loadIndex()
	if !contains(list, name) {
		list = append(list, name)
		c.saveIndex(list)
	}
	return nil
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}
