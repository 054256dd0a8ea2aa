package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoJSONObject is returned when the text contains no balanced {...} span.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// ExtractJSONObject returns the first balanced {...} span in text. Braces inside
// JSON string literals do not count towards the balance, so a span such as
// {"body": "a } b"} is returned whole. Commentary or Markdown fences around the
// object are ignored.
func ExtractJSONObject(text string) (string, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		// An unterminated '{' may still enclose a later span that closes.
		if end, ok := matchBrace(text, start); ok {
			return text[start : end+1], nil
		}
	}
	return "", ErrNoJSONObject
}

// matchBrace returns the index of the '}' closing the '{' at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// DecodeJSONObject extracts the first balanced JSON object from text and
// unmarshals it into v.
func DecodeJSONObject(text string, v interface{}) error {
	span, err := ExtractJSONObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("unmarshal JSON object: %w", err)
	}
	return nil
}
