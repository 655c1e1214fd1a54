package generate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports that a structured response could not be parsed, even
// after salvage.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("structured response parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseStructured decodes a generation that is expected to be a JSON
// object. It tries a direct parse first, then salvages the outermost {...}
// span (models often wrap JSON in prose or code fences). If both fail it
// returns a ParseError rather than partial data.
func ParseStructured(raw string, v any) error {
	direct := json.Unmarshal([]byte(raw), v)
	if direct == nil {
		return nil
	}

	span, ok := outermostObject(raw)
	if !ok {
		return &ParseError{Raw: raw, Err: direct}
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}
	return nil
}

// outermostObject extracts the first '{' through the last '}' of raw.
func outermostObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
