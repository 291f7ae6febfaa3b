package fs

import (
	"errors"
	"path"
	"strings"
)

var ErrUnsafeKey = errors.New("unsafe storage key")

// NormalizeKey cleans a slash-separated logical key and rejects anything
// that could escape the store root.
func NormalizeKey(k string) (string, error) {
	if strings.ContainsRune(k, 0) {
		return "", ErrUnsafeKey
	}
	k = strings.ReplaceAll(k, "\\", "/")
	if strings.HasPrefix(k, "/") {
		return "", ErrUnsafeKey
	}
	clean := path.Clean(k)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrUnsafeKey
	}
	return clean, nil
}

// EnsureHTMLExt appends the enforced document suffix when missing.
func EnsureHTMLExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".html") {
		return name
	}
	return name + ".html"
}
