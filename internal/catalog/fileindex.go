package catalog

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// loadIndex reads the catalog index blob. The blob has been written by
// several generations of tooling, so three encodings are accepted: a JSON
// array, a JSON string containing an array, and single-quoted array text.
// Anything unparseable resets to an empty index.
func (c *Store) loadIndex() []string {
	raw := c.blobs.Load(indexKey)
	if raw == nil {
		return nil
	}
	list, err := parseIndex(raw)
	if err != nil {
		slog.Warn("catalog index unparseable, resetting", "err", err)
		c.saveIndex(nil)
		return nil
	}
	return list
}

func parseIndex(raw []byte) ([]string, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return cleanIndex(list), nil
	}

	// A doubly-encoded index arrives as a JSON string holding an array.
	var inner string
	if err := json.Unmarshal([]byte(text), &inner); err == nil {
		text = strings.TrimSpace(inner)
	}
	if strings.Contains(text, "'") {
		text = strings.ReplaceAll(text, "'", `"`)
	}
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, err
	}
	return cleanIndex(list), nil
}

func cleanIndex(list []string) []string {
	out := make([]string, 0, len(list))
	for _, name := range list {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (c *Store) saveIndex(list []string) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		slog.Error("catalog index marshal", "err", err)
		return
	}
	if !c.blobs.Save(indexKey, data) {
		slog.Error("catalog index write failed")
	}
}
