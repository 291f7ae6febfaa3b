package intercept

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
)

// Trigger names, shared with the scripts delivered into the context.
const (
	triggerDownloadLink  = "download-link"
	triggerObjectURL     = "object-url"
	triggerDynamicAnchor = "dynamic-anchor"
	triggerKeyboard      = "keyboard"
)

//go:embed scripts/*.js
var scriptFS embed.FS

func mustScript(name string) string {
	data, err := scriptFS.ReadFile("scripts/" + name)
	if err != nil {
		panic(fmt.Sprintf("missing hook script %s: %v", name, err))
	}
	return string(data)
}

// defaultHooks is the full interception set: one hook per way the embedded
// document can produce a save artifact. Install/Uninstall are called with
// the attachment lock held and mutate only that attachment's own state.
func defaultHooks() []Hook {
	enable := func(trigger string) func(*Attachment) error {
		return func(a *Attachment) error {
			a.triggers[trigger] = true
			return nil
		}
	}
	disable := func(trigger string) func(*Attachment) error {
		return func(a *Attachment) error {
			delete(a.triggers, trigger)
			return nil
		}
	}

	return []Hook{
		{
			Name:      triggerDownloadLink,
			Script:    mustScript("download_link.js"),
			Install:   enable(triggerDownloadLink),
			Uninstall: disable(triggerDownloadLink),
		},
		{
			Name:   triggerObjectURL,
			Script: mustScript("object_url.js"),
			Install: func(a *Attachment) error {
				a.blobRefs = make(map[string]bool)
				a.triggers[triggerObjectURL] = true
				return nil
			},
			Uninstall: func(a *Attachment) error {
				a.blobRefs = nil
				delete(a.triggers, triggerObjectURL)
				return nil
			},
		},
		{
			Name:      triggerDynamicAnchor,
			Script:    mustScript("dynamic_anchor.js"),
			Install:   enable(triggerDynamicAnchor),
			Uninstall: disable(triggerDynamicAnchor),
		},
		{
			Name:      triggerKeyboard,
			Script:    mustScript("keyboard_save.js"),
			Install:   enable(triggerKeyboard),
			Uninstall: disable(triggerKeyboard),
		},
	}
}

// ScriptBundle assembles the client half of an attachment's hooks: a
// prologue binding the attachment id and save route, then each hook script.
// Available while the attachment is routable; a detached id yields nothing.
func (r *Registry) ScriptBundle(id string) ([]byte, bool) {
	a, ok := r.Get(id)
	if !ok || a.State() == StateDetached {
		return nil, false
	}

	var b bytes.Buffer
	b.WriteString("(function () {\n\"use strict\";\n")
	fmt.Fprintf(&b, "var SAVE_URL = %q;\n", "/attach/"+a.ID+"/save")
	b.WriteString(scriptPrologue)
	for _, h := range a.hooks {
		b.WriteString("\n// hook: " + h.Name + "\n")
		b.WriteString(strings.TrimSpace(h.Script))
		b.WriteString("\n")
	}
	b.WriteString("})();\n")
	return b.Bytes(), true
}

const scriptPrologue = `
function postSave(payload) {
	return fetch(SAVE_URL, {
		method: "POST",
		headers: { "Content-Type": "application/json" },
		body: JSON.stringify(payload)
	}).catch(function (err) {
		console.error("wikidock save post failed:", err);
	});
}

function closestAnchor(el) {
	while (el && el.tagName !== "A") {
		el = el.parentElement;
	}
	return el;
}
`
