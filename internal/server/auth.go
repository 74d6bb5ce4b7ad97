package server

import (
	"strings"
)

// anthropicOAuthPrefix marks a client-supplied key as an Anthropic OAuth
// token, which this proxy never forwards: the backend is not Anthropic, and
// forwarding it would leak a credential to the wrong party.
const anthropicOAuthPrefix = "sk-ant-"

// extractClientKey reads the client's key from "Authorization: Bearer <key>"
// (preferred) or "x-api-key", trimming whitespace and the Bearer prefix.
func extractClientKey(authHeader, apiKeyHeader string) string {
	if authHeader != "" {
		v := strings.TrimSpace(authHeader)
		v = strings.TrimPrefix(v, "Bearer ")
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(apiKeyHeader)
}

func isAnthropicOAuthKey(key string) bool {
	return strings.Contains(key, anthropicOAuthPrefix)
}

// maskToken redacts a credential for log lines while keeping enough context
// to correlate: long keys keep their first 6 and last 4 characters.
func maskToken(token string) string {
	switch {
	case len(token) > 12:
		return token[:6] + "..." + token[len(token)-4:]
	case token != "":
		return "***"
	default:
		return "<empty>"
	}
}
