package stream

import (
	"encoding/json"
	"strings"
)

// FormatBackendError builds the markdown-flavored inline error body for a
// non-retryable backend failure. It is a pure function of the error message
// and, optionally, the raw JSON the error was extracted from.
func FormatBackendError(message string, rawJSON json.RawMessage) string {
	var b strings.Builder
	b.WriteString("⚠️ Backend Error\n\n")

	if len(rawJSON) > 0 {
		var obj struct {
			Model string `json:"model"`
		}
		if err := json.Unmarshal(rawJSON, &obj); err == nil && obj.Model != "" {
			b.WriteString("Model: ")
			b.WriteString(obj.Model)
			b.WriteString("\n")
		}
	}

	b.WriteString("Error: ")
	b.WriteString(message)
	b.WriteString("\n\n")

	switch {
	case strings.Contains(message, "token") && strings.Contains(message, "exceed"):
		if requested := between(message, "total of ", " tokens"); requested != "" {
			b.WriteString("Requested: ")
			b.WriteString(requested)
			b.WriteString(" tokens\n")
		}
		if limit := between(message, "maximum context length of ", " tokens"); limit != "" {
			b.WriteString("Limit: ")
			b.WriteString(limit)
			b.WriteString(" tokens\n\n")
		}
		b.WriteString("💡 Suggestions:\n")
		b.WriteString("• Reduce message history\n")
		b.WriteString("• Use a model with larger context\n")
		b.WriteString("• Decrease max_tokens parameter\n")
	case strings.Contains(message, "rate limit"):
		b.WriteString("💡 Suggestions:\n")
		b.WriteString("• Wait a moment before retrying\n")
		b.WriteString("• Check your API quota\n")
	case strings.Contains(message, "insufficient") || strings.Contains(message, "quota"):
		b.WriteString("💡 Suggestions:\n")
		b.WriteString("• Check your account balance\n")
		b.WriteString("• Verify API key permissions\n")
	}

	return b.String()
}

// between extracts the substring after start up to end, or "" if either is
// absent.
func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	rest := s[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return ""
	}
	return rest[:j]
}
