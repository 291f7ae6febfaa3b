package catalog

import (
	_ "embed"
	"log/slog"
	"sort"
	"strings"
)

// baselineTemplate ships with the binary and is copied into the template
// directory on first use, so a fresh data directory always has a usable seed.
//
//go:embed assets/empty.html
var baselineTemplate []byte

const baselineTemplateName = "empty.html"

// probeTemplateNames is the fallback when the store offers no directory
// listing: well-known names probed one by one.
var probeTemplateNames = []string{"empty.html", "default.html", "blank.html"}

// ListTemplates returns the sorted set of available template names. It never
// fails outward: directory listing, probe list, and baseline synthesis are
// tried in order until at least one template resolves.
func (c *Store) ListTemplates() []string {
	var names []string
	for _, entry := range c.blobs.ReadDir(templateDir) {
		if entry.IsDir || !strings.HasSuffix(strings.ToLower(entry.Name), ".html") {
			continue
		}
		names = append(names, entry.Name)
	}

	if len(names) == 0 {
		for _, name := range probeTemplateNames {
			if c.blobs.Exists(templateKey(name)) {
				names = append(names, name)
			}
		}
	}

	if len(names) == 0 {
		c.ensureBaselineTemplate()
		names = append(names, baselineTemplateName)
	}

	sort.Strings(names)
	return names
}

// ReadTemplate returns a template's content, or nil when unreadable.
func (c *Store) ReadTemplate(name string) []byte {
	return c.blobs.Load(templateKey(name))
}

// ensureBaselineTemplate persists the bundled seed document unless a
// template with its name already exists. A synthesized minimal document is
// the last resort if the bundled asset ever fails validation.
func (c *Store) ensureBaselineTemplate() {
	key := templateKey(baselineTemplateName)
	if c.blobs.Exists(key) {
		return
	}
	content := baselineTemplate
	if err := Validate(content); err != nil {
		slog.Warn("bundled template invalid, synthesizing", "err", err)
		content = synthesizeTemplate()
	}
	if c.blobs.Save(key, content) {
		slog.Info("baseline template installed", "name", baselineTemplateName)
	} else {
		slog.Error("baseline template install failed")
	}
}

func synthesizeTemplate() []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"application-name\" content=\"wikidock-document\">\n")
	b.WriteString("<title>Empty wiki</title>\n</head>\n<body>\n")
	b.WriteString("<h1>Empty wiki</h1>\n")
	b.WriteString("<p>This is a minimal seed document. Replace it with a full\n")
	b.WriteString("single-file wiki to get the complete editing experience.</p>\n")
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}
