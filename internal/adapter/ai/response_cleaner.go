package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// CleanJSONResponse strips markdown fences and surrounding prose from a model
// response and returns the first balanced JSON object it contains. ok is false
// when no parsable object could be recovered.
func CleanJSONResponse(response string) (cleaned string, ok bool) {
	response = removeMarkdownBlocks(response)
	response = extractJSON(response)
	if isValidJSON(response) {
		return response, true
	}
	fixed := trailingCommaRe.ReplaceAllString(response, "$1")
	if isValidJSON(fixed) {
		return fixed, true
	}
	return response, false
}

// removeMarkdownBlocks removes ```json fences, including fences that are
// preceded by a short lead-in sentence.
func removeMarkdownBlocks(response string) string {
	response = strings.TrimSpace(response)
	if i := strings.Index(response, "```"); i >= 0 {
		rest := response[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		rest = strings.TrimPrefix(rest, "JSON")
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		response = rest
	}
	return strings.TrimSpace(response)
}

// extractJSON returns the first balanced {...} object, honouring braces that
// appear inside string literals.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return response
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		ch := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return response[start:]
}

func isValidJSON(s string) bool {
	if s == "" {
		return false
	}
	var v map[string]any
	return json.Unmarshal([]byte(s), &v) == nil
}
