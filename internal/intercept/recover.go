package intercept

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrUnsupportedURL = errors.New("unsupported save url")
	ErrEmptyPayload   = errors.New("empty save payload")
)

// ScriptMarkerAttr tags the script element the server plants into served
// content, so recovered full-document dumps can shed it again.
const ScriptMarkerAttr = "data-dock-hooks"

var injectedScriptPattern = regexp.MustCompile(`(?i)<script[^>]*` + ScriptMarkerAttr + `[^>]*>\s*</script>`)

// StripInjectedScript removes the planted hook script from recovered
// content. Full-document dumps include it because it lives in the rendered
// DOM; persisting it would accumulate dead tags across open/save cycles.
func StripInjectedScript(content []byte) []byte {
	return injectedScriptPattern.ReplaceAll(content, nil)
}

// DecodeDataURL extracts the payload of a data: URL, handling both base64
// and percent-encoded bodies. Object URLs cannot be resolved here; their
// content must arrive already read out of the rendering context.
func DecodeDataURL(raw string) ([]byte, error) {
	if !strings.HasPrefix(raw, "data:") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, truncate(raw, 64))
	}
	comma := strings.IndexByte(raw, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: data url without payload", ErrUnsupportedURL)
	}
	meta := raw[len("data:"):comma]
	payload := raw[comma+1:]

	if strings.Contains(meta, "base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		return decoded, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return []byte(decoded), nil
}

// NormalizeDocument prefixes the format declaration when the recovered
// serialization lacks one, matching what the embedded application would have
// written to disk itself.
func NormalizeDocument(content []byte) []byte {
	trimmed := strings.TrimLeft(string(content), " \t\r\n")
	if strings.HasPrefix(strings.ToLower(trimmed), "<!doctype") {
		return content
	}
	return append([]byte("<!DOCTYPE html>\n"), content...)
}

// LooksComplete reports whether the payload resembles a full serialized
// document. Incomplete payloads are still saved; callers only warn.
func LooksComplete(content []byte) bool {
	lower := strings.ToLower(string(content))
	return strings.Contains(lower, "<html") && strings.Contains(lower, "</html>")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
