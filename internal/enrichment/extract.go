package enrichment

import (
	"encoding/json"
	"fmt"
	"strings"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
)

// ExtractJSONObject returns the top-level {...} block that opens at the first
// brace in text. Braces inside JSON strings, including escaped quotes, do not
// count. A top-level object that never balances yields false; objects nested
// inside it are not promoted.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
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
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// parseGenerated extracts and decodes the JSON object embedded in text.
func parseGenerated(text string) (map[string]json.RawMessage, error) {
	block, ok := ExtractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no json object in generated text", apperrors.ErrEnrichmentParse)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrEnrichmentParse, err)
	}
	return fields, nil
}
