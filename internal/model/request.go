// Package model defines the inbound Anthropic Messages request shape. It
// mirrors the discriminated-union style of anthropic-sdk-go's param types
// (OfText, OfToolUse, ...) but is hand-rolled so that a single malformed
// message can fall back to an opaque pass-through instead of failing the
// whole request.
package model

import "encoding/json"

// Request is the inbound Anthropic "Messages" API request body.
type Request struct {
	Model         string          `json:"model"`
	Messages      []Message       `json:"messages"`
	System        json.RawMessage `json:"system,omitempty"`
	MaxTokens     *int64          `json:"max_tokens,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int64          `json:"top_k,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Tools         []Tool          `json:"tools,omitempty"`
	ToolChoice    json.RawMessage `json:"tool_choice,omitempty"`
	Thinking      json.RawMessage `json:"thinking,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	ServiceTier   string          `json:"service_tier,omitempty"`
	Stream        bool            `json:"stream,omitempty"`
}

// Message is one turn of the conversation. Content is kept raw; callers use
// ParseContentBlocks to attempt a structured decode, falling back to the
// raw string/JSON on failure per the translator's pass-through contract.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentAsString reports whether Content decodes as a bare JSON string, and
// returns it.
func (m Message) ContentAsString() (string, bool) {
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// Tool is a tool definition offered to the model. InputSchema is carried as
// opaque JSON; this proxy never validates tool schemas.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// ContentBlock is the tagged union over Anthropic content block kinds. Only
// one of the Of* fields is populated, mirroring anthropic-sdk-go's
// ContentBlockParamUnion (OfText, OfImage, OfToolUse, OfToolResult,
// OfThinking).
type ContentBlock struct {
	Type string

	OfText       *TextBlock
	OfImage      *ImageBlock
	OfThinking   *ThinkingBlock
	OfToolUse    *ToolUseBlock
	OfToolResult *ToolResultBlock
}

// TextBlock is plain text content.
type TextBlock struct {
	Text string `json:"text"`
}

// ImageBlock is inline base64 image content.
type ImageBlock struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ThinkingBlock carries the model's private chain-of-thought text.
type ThinkingBlock struct {
	Thinking string `json:"thinking"`
}

// ToolUseBlock is an assistant-issued tool invocation.
type ToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResultBlock is a user-supplied result for a prior tool use.
type ToolResultBlock struct {
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error,omitempty"`
}

type rawBlock struct {
	Type string `json:"type"`

	Text string `json:"text"`

	Source struct {
		MediaType string `json:"media_type"`
		Data      string `json:"data"`
	} `json:"source"`

	Thinking string `json:"thinking"`

	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`

	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// ParseContentBlocks attempts to decode raw as an ordered sequence of
// content blocks. ok is false on any parse failure, signaling the caller
// should pass the content through opaquely instead.
func ParseContentBlocks(raw json.RawMessage) (blocks []ContentBlock, ok bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var rawBlocks []rawBlock
	if err := json.Unmarshal(raw, &rawBlocks); err != nil {
		return nil, false
	}
	blocks = make([]ContentBlock, 0, len(rawBlocks))
	for _, rb := range rawBlocks {
		cb := ContentBlock{Type: rb.Type}
		switch rb.Type {
		case "text":
			cb.OfText = &TextBlock{Text: rb.Text}
		case "image":
			cb.OfImage = &ImageBlock{MediaType: rb.Source.MediaType, Data: rb.Source.Data}
		case "thinking":
			cb.OfThinking = &ThinkingBlock{Thinking: rb.Thinking}
		case "tool_use":
			cb.OfToolUse = &ToolUseBlock{ID: rb.ID, Name: rb.Name, Input: rb.Input}
		case "tool_result":
			cb.OfToolResult = &ToolResultBlock{ToolUseID: rb.ToolUseID, Content: rb.Content, IsError: rb.IsError}
		default:
			// Unknown block kind: keep it as a typed no-op block rather
			// than failing the whole message.
		}
		blocks = append(blocks, cb)
	}
	return blocks, true
}

// SystemText resolves the System field: a bare string is passed through
// unchanged; an ordered sequence of blocks is reduced to the concatenation
// of its text blocks joined by "\n". Any other shape (a number, an object,
// an array that does not decode as blocks) yields "", so it is not passed
// on to the backend.
func (r Request) SystemText() string {
	if len(r.System) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.System, &s); err == nil {
		return s
	}
	if blocks, ok := ParseContentBlocks(r.System); ok {
		var out string
		for _, b := range blocks {
			if b.OfText != nil {
				if out != "" {
					out += "\n"
				}
				out += b.OfText.Text
			}
		}
		return out
	}
	return ""
}
