package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeJSONResponse parses a JSON object out of an LLM response. Models wrap
// JSON in code fences or lead with prose, so the object is located by
// bracket scanning rather than decoded directly.
func decodeJSONResponse(raw string, out interface{}) error {
	cleaned := strings.TrimSpace(raw)

	// Strip a markdown code fence, with or without a language tag.
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}
