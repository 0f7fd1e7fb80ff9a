package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceRe  = regexp.MustCompile("```(?:json|JSON)?[ \t]*\r?\n?")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON pulls a JSON value out of free-form model output. It tries, in
// order: the trimmed text, the text with code fences removed, and the widest
// {...} substring. When all of them fail it returns ErrMalformedResponse.
func ExtractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty output: %w", ErrMalformedResponse)
	}
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	unfenced := strings.TrimSpace(fenceRe.ReplaceAllString(trimmed, ""))
	if json.Valid([]byte(unfenced)) {
		return json.RawMessage(unfenced), nil
	}

	if match := objectRe.FindString(trimmed); match != "" && json.Valid([]byte(match)) {
		return json.RawMessage(match), nil
	}
	return nil, ErrMalformedResponse
}

// DecodeJSON extracts JSON from text and unmarshals it into v.
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
