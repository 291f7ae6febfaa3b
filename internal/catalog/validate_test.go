package catalog

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
		ok      bool
	}{
		{"valid document", validDoc("hello"), true},
		{"bundled baseline", baselineTemplate, true},
		{"tiny file", []byte("0123456789"), false},
		{"no html structure", append([]byte("tiddlywiki "), make([]byte, 300)...), false},
		{"no format marker", validDocWithoutMarker(), false},
	}

	for _, c := range cases {
		err := Validate(c.content)
		if c.ok && err != nil {
			t.Fatalf("%s: expected valid, got %v", c.name, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("%s: expected ErrInvalidFormat, got %v", c.name, err)
		}
	}
}

func validDocWithoutMarker() []byte {
	doc := "<!DOCTYPE html><html><head><title>x</title></head><body>plain page</body></html>"
	for len(doc) < minDocumentSize {
		doc += "<!-- pad -->"
	}
	return []byte(doc)
}

func TestSynthesizedTemplateIsValid(t *testing.T) {
	if err := Validate(synthesizeTemplate()); err != nil {
		t.Fatalf("synthesized template must validate: %v", err)
	}
}
