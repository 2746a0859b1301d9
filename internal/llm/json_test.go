package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeJSONStrict(t *testing.T) {
	raw, err := DecodeJSON(`  {"items": [1, 2]}  `)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if string(raw) != `{"items": [1, 2]}` {
		t.Errorf("got %q", raw)
	}
}

func TestDecodeJSONRecoversFencedBlock(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"json fence", "Here you go:\n```json\n{\"ok\": true}\n```\nDone."},
		{"bare fence", "```\n{\"ok\": true}\n```"},
		{"fence with trailing prose", "```json\n{\"ok\": true}\n```\nLet me know if you need changes."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := DecodeJSON(tc.text)
			if err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			if string(raw) != `{"ok": true}` {
				t.Errorf("got %q", raw)
			}
		})
	}
}

func TestDecodeJSONParseError(t *testing.T) {
	_, err := DecodeJSON("I could not produce JSON for that request.")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %v", err)
	}
	if !strings.Contains(pe.Raw, "could not produce") {
		t.Errorf("raw excerpt missing: %q", pe.Raw)
	}
}

func TestDecodeJSONTruncatesRaw(t *testing.T) {
	_, err := DecodeJSON(strings.Repeat("x", 2000))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %v", err)
	}
	if len(pe.Raw) > maxRawInParseError {
		t.Errorf("raw not truncated: %d bytes", len(pe.Raw))
	}
}
