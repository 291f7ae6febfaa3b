package catalog

import (
	"fmt"
	"strings"
)

// minDocumentSize rejects trivially empty files before any write happens.
const minDocumentSize = 256

// formatMarkers identify the single-file wiki container format. A document
// must carry at least one of them in addition to the structural markers.
var formatMarkers = []string{
	"tiddlywiki",
	`name="application-name"`,
	"wikidock-document",
}

// Validate checks that content is structurally a self-contained wiki
// document: minimum size, top-level document structure, and at least one
// format-identifying marker. Semantic validity of the embedded application
// is out of scope.
func Validate(content []byte) error {
	if len(content) < minDocumentSize {
		return fmt.Errorf("%w: %d bytes is below the %d byte minimum", ErrInvalidFormat, len(content), minDocumentSize)
	}
	lower := strings.ToLower(string(content))
	if !strings.Contains(lower, "<html") || !strings.Contains(lower, "</html>") {
		return fmt.Errorf("%w: missing top-level html structure", ErrInvalidFormat)
	}
	if !strings.Contains(lower, "<body") {
		return fmt.Errorf("%w: missing document body", ErrInvalidFormat)
	}
	for _, marker := range formatMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return nil
		}
	}
	return fmt.Errorf("%w: no recognized format marker", ErrInvalidFormat)
}
