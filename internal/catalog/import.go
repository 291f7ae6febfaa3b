package catalog

import (
	"fmt"
	"log/slog"

	"wikidock/internal/storage/fs"
)

// Confirmer resolves yes/no questions the catalog cannot answer itself, such
// as overwriting an existing document on import.
type Confirmer interface {
	Confirm(question string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(question string) bool

func (f ConfirmerFunc) Confirm(question string) bool { return f(question) }

// ImportKind selects the destination of an imported file.
type ImportKind int

const (
	ImportAsDocument ImportKind = iota
	ImportAsTemplate
)

// Import validates raw content and stores it under the suggested name,
// either as a document or a template. Validation happens before any write;
// a name collision is resolved through the confirmation collaborator.
func (c *Store) Import(raw []byte, suggestedName string, kind ImportKind, confirm Confirmer) (string, error) {
	if err := Validate(raw); err != nil {
		return "", err
	}
	name := fs.EnsureHTMLExt(suggestedName)
	if err := checkName(name); err != nil {
		return name, err
	}

	var key string
	switch kind {
	case ImportAsTemplate:
		key = templateKey(name)
	default:
		key = docKey(name)
	}

	if c.blobs.Exists(key) {
		if confirm == nil || !confirm.Confirm(fmt.Sprintf("%q already exists. Overwrite?", name)) {
			return name, fmt.Errorf("%w: %q exists", ErrCancelled, name)
		}
	}
	if !c.blobs.Save(key, raw) {
		return name, fmt.Errorf("%w: import %q", ErrStorage, name)
	}

	if kind == ImportAsDocument {
		list := c.loadIndex()
		if !contains(list, name) {
			list = append(list, name)
			c.saveIndex(list)
		}
	}
	slog.Info("imported", "name", name, "template", kind == ImportAsTemplate, "bytes", len(raw))
	return name, nil
}
