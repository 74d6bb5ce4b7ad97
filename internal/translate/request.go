package translate

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/relaybridge/anthropic-openai-proxy/internal/model"
)

const (
	maxContentBytes = 5 * 1024 * 1024
	maxMessageCount = 10_000
	maxSystemBytes  = 100 * 1024
	minMaxTokens    = 1
	maxMaxTokens    = 100_000
)

// ThinkingCapable reports whether a normalized model name supports
// thinking/extended_thinking, per the catalog's supported_features. The
// translator depends on this narrow interface rather than the catalog
// package directly, so it can be tested without a live catalog.
type ThinkingCapable interface {
	SupportsThinking(normalizedModel string) bool
}

// Request converts an inbound Anthropic request into the outbound OAIRequest,
// or a *ValidationError describing why it cannot.
func Request(in *model.Request, normalizedModel string, catalog ThinkingCapable, log logrus.FieldLogger) (*OAIRequest, error) {
	if len(in.Messages) == 0 {
		return nil, validationErr("empty_messages", "messages must not be empty")
	}
	if len(in.Messages) > maxMessageCount {
		return nil, validationErr("too_many_messages", "messages exceeds maximum of 10000")
	}
	if len(in.System) > maxSystemBytes {
		return nil, validationErr("system_prompt_too_large", "system prompt exceeds 100KiB")
	}
	if in.MaxTokens != nil && (*in.MaxTokens < minMaxTokens || *in.MaxTokens > maxMaxTokens) {
		return nil, validationErr("invalid_max_tokens", "max_tokens must be between 1 and 100000")
	}

	totalContentBytes := len(in.System)
	for _, m := range in.Messages {
		totalContentBytes += len(m.Content)
	}
	if totalContentBytes > maxContentBytes {
		return nil, validationErrStatus(413, "content_too_large", "total content exceeds 5MiB")
	}

	if len(in.Metadata) > 0 && log != nil {
		log.Warn("translate: 'metadata' parameter not supported by backend, accepted but ignored")
	}
	if in.ServiceTier != "" && log != nil {
		log.Warn("translate: 'service_tier' parameter not supported by backend, accepted but ignored")
	}

	out := &OAIRequest{
		Model:       normalizedModel,
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
		TopP:        in.TopP,
		TopK:        in.TopK,
		Stop:        in.StopSequences,
		Tools:       translateTools(in.Tools),
		Stream:      true,
	}

	if sys := in.SystemText(); sys != "" {
		out.Messages = append(out.Messages, OAIMessage{Role: "system", Content: sys})
	}

	for _, msg := range in.Messages {
		out.Messages = append(out.Messages, translateMessage(msg, log)...)
	}

	out.Messages = dropTrailingEmptyAssistant(out.Messages)
	if len(out.Messages) == 0 {
		return nil, validationErr("no_messages", "no messages remained after conversion")
	}

	out.ToolChoice = TranslateToolChoice(in.ToolChoice, log)
	out.Thinking = resolveThinking(in.Thinking, normalizedModel, catalog)

	return out, nil
}

func translateTools(tools []model.Tool) []OAITool {
	out := make([]OAITool, 0, len(tools))
	for _, t := range tools {
		out = append(out, OAITool{
			Type: "function",
			Function: OAIFunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// translateMessage converts one inbound message into zero or more outbound
// messages. Tool results fan out into per-result tool-role messages;
// assistant turns fold thinking, text, and tool_use blocks into one message.
func translateMessage(msg model.Message, log logrus.FieldLogger) []OAIMessage {
	if s, ok := msg.ContentAsString(); ok {
		return []OAIMessage{{Role: msg.Role, Content: s}}
	}

	blocks, ok := model.ParseContentBlocks(msg.Content)
	if !ok {
		var passthrough interface{}
		_ = json.Unmarshal(msg.Content, &passthrough)
		return []OAIMessage{{Role: msg.Role, Content: passthrough}}
	}

	switch msg.Role {
	case "user":
		if hasToolResult(blocks) {
			return translateUserWithToolResults(blocks)
		}
	case "assistant":
		return translateAssistant(blocks)
	}
	return translateOtherRole(msg.Role, blocks)
}

func hasToolResult(blocks []model.ContentBlock) bool {
	for _, b := range blocks {
		if b.OfToolResult != nil {
			return true
		}
	}
	return false
}

func translateUserWithToolResults(blocks []model.ContentBlock) []OAIMessage {
	var out []OAIMessage
	var textParts []string
	for _, b := range blocks {
		switch {
		case b.OfToolResult != nil:
			out = append(out, OAIMessage{
				Role:       "tool",
				Content:    toolResultContent(b.OfToolResult),
				ToolCallID: b.OfToolResult.ToolUseID,
			})
		case b.OfText != nil:
			textParts = append(textParts, b.OfText.Text)
		}
	}
	if len(textParts) > 0 {
		out = append(out, OAIMessage{Role: "user", Content: strings.Join(textParts, "\n")})
	}
	return out
}

func toolResultContent(tr *model.ToolResultBlock) interface{} {
	var s string
	if err := json.Unmarshal(tr.Content, &s); err == nil {
		return s
	}
	var passthrough interface{}
	if err := json.Unmarshal(tr.Content, &passthrough); err == nil {
		return passthrough
	}
	return string(tr.Content)
}

func translateAssistant(blocks []model.ContentBlock) []OAIMessage {
	var thinkingText, textText string
	var toolCalls []OAIToolCall

	for _, b := range blocks {
		switch {
		case b.OfThinking != nil:
			thinkingText += b.OfThinking.Thinking
		case b.OfText != nil:
			textText += b.OfText.Text
		case b.OfToolUse != nil:
			args := b.OfToolUse.Input
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			toolCalls = append(toolCalls, OAIToolCall{
				ID:   b.OfToolUse.ID,
				Type: "function",
				Function: OAIFunctionCall{
					Name:      b.OfToolUse.Name,
					Arguments: string(args),
				},
			})
		}
	}

	var content interface{}
	switch {
	case thinkingText != "" && textText != "":
		content = "<think>" + thinkingText + "</think>\n" + textText
	case thinkingText != "":
		content = "<think>" + thinkingText + "</think>\n"
	case textText != "":
		content = textText
	default:
		content = nil
	}

	return []OAIMessage{{Role: "assistant", Content: content, ToolCalls: toolCalls}}
}

func translateOtherRole(role string, blocks []model.ContentBlock) []OAIMessage {
	hasImage := false
	for _, b := range blocks {
		if b.OfImage != nil {
			hasImage = true
			break
		}
	}

	if !hasImage {
		var text string
		for _, b := range blocks {
			if b.OfText != nil {
				text += b.OfText.Text
			}
		}
		return []OAIMessage{{Role: role, Content: text}}
	}

	var parts []OAIContentPart
	for _, b := range blocks {
		switch {
		case b.OfText != nil:
			parts = append(parts, OAIContentPart{Type: "text", Text: b.OfText.Text})
		case b.OfImage != nil:
			parts = append(parts, OAIContentPart{
				Type: "image_url",
				ImageURL: &OAIImageURL{
					URL: "data:" + b.OfImage.MediaType + ";base64," + b.OfImage.Data,
				},
			})
		}
	}
	return []OAIMessage{{Role: role, Content: parts}}
}

// dropTrailingEmptyAssistant removes a trailing assistant placeholder some
// clients append: empty/null content and no tool_calls.
func dropTrailingEmptyAssistant(msgs []OAIMessage) []OAIMessage {
	if len(msgs) == 0 {
		return msgs
	}
	last := msgs[len(msgs)-1]
	if last.Role != "assistant" || len(last.ToolCalls) > 0 {
		return msgs
	}
	switch c := last.Content.(type) {
	case nil:
		return msgs[:len(msgs)-1]
	case string:
		if c == "" {
			return msgs[:len(msgs)-1]
		}
	}
	return msgs
}

func resolveThinking(explicit json.RawMessage, normalizedModel string, catalog ThinkingCapable) json.RawMessage {
	if len(explicit) > 0 {
		return explicit
	}
	if catalog == nil || !catalog.SupportsThinking(normalizedModel) {
		return nil
	}
	return json.RawMessage(`{"type":"enabled","budget_tokens":10000}`)
}
