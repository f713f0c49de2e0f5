package llm

import (
	"encoding/json"
	"strings"

	"github.com/nihalnihalani/SelfCoding/pkg/errors"
)

// rawPayloadLimit bounds how much of a malformed response is attached to the
// resulting error.
const rawPayloadLimit = 200

// StripFences removes an optional fenced code block wrapper from a model
// response. Both ```json ... ``` and bare ``` ... ``` wrappers are handled;
// anything else is returned trimmed.
func StripFences(response string) string {
	text := strings.TrimSpace(response)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}

	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// DecodeResponse strips fences from a raw model response and unmarshals the
// remainder into v. A response that is not valid JSON after stripping is a
// hard failure carrying the truncated payload.
func DecodeResponse(raw string, v interface{}) error {
	stripped := StripFences(raw)
	if err := json.Unmarshal([]byte(stripped), v); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.InvalidResponse, "capability response is not valid JSON"),
			errors.Fields{"raw": Truncate(raw, rawPayloadLimit)})
	}
	return nil
}

// ParseJSONMap decodes a raw model response into a generic map.
func ParseJSONMap(raw string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := DecodeResponse(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Truncate shortens s to at most n bytes for logging.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
