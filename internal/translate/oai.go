package translate

import "encoding/json"

// OAIRequest is the outbound OpenAI Chat Completions request body. Tools is
// always serialized, even when empty; Stream is always true; absent numeric
// parameters stay absent on the wire.
type OAIRequest struct {
	Model       string          `json:"model"`
	Messages    []OAIMessage    `json:"messages"`
	MaxTokens   *int64          `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	TopK        *int64          `json:"top_k,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
	Tools       []OAITool       `json:"tools"`
	ToolChoice  interface{}     `json:"tool_choice,omitempty"`
	Thinking    json.RawMessage `json:"thinking,omitempty"`
	Stream      bool            `json:"stream"`
}

// OAIMessage is one OpenAI chat message.
type OAIMessage struct {
	Role       string        `json:"role"`
	Content    interface{}   `json:"content"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	ToolCalls  []OAIToolCall `json:"tool_calls,omitempty"`
}

// OAIContentPart is one element of a multi-part message content array
// (text or image_url).
type OAIContentPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *OAIImageURL `json:"image_url,omitempty"`
}

// OAIImageURL wraps the data: URL OpenAI expects for inline images.
type OAIImageURL struct {
	URL string `json:"url"`
}

// OAIToolCall is one assistant-issued function call.
type OAIToolCall struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function OAIFunctionCall `json:"function"`
}

// OAIFunctionCall is the function payload of a tool call.
type OAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// OAITool is a tool definition in OpenAI's function-calling format.
type OAITool struct {
	Type     string         `json:"type"`
	Function OAIFunctionDef `json:"function"`
}

// OAIFunctionDef is the function definition of a tool.
type OAIFunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}
