package llm

import (
	"encoding/json"
	"strings"
)

const maxRawInParseError = 500

// DecodeJSON parses model output as JSON, recovering from the common case
// of a fenced markdown block around the payload. When nothing parses the
// returned error is a *ParseError carrying the raw text.
func DecodeJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) && trimmed != "" {
		return json.RawMessage(trimmed), nil
	}

	if block, ok := extractFencedBlock(trimmed); ok {
		if json.Valid([]byte(block)) && block != "" {
			return json.RawMessage(block), nil
		}
	}

	raw := text
	if len(raw) > maxRawInParseError {
		raw = raw[:maxRawInParseError]
	}
	return nil, &ParseError{Raw: raw}
}

func extractFencedBlock(text string) (string, bool) {
	marker := "```json"
	idx := strings.Index(text, marker)
	if idx < 0 {
		marker = "```"
		idx = strings.Index(text, marker)
	}
	if idx < 0 {
		return "", false
	}

	rest := text[idx+len(marker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
