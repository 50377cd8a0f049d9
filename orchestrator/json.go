package orchestrator

import "strings"

// extractJSON returns the outermost JSON object inside a model response.
// Models occasionally wrap their output in markdown fences or prose despite
// the instructions; slicing between the first '{' and the last '}' recovers
// the payload. When no braces are present it returns an empty string so the
// caller can surface a useful error.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end >= start {
		return raw[start : end+1]
	}
	return ""
}
