package stream

import (
	"encoding/json"
	"strconv"
	"time"
)

// Anthropic SSE event type names, exhaustive per the external interface.
const (
	EventMessageStart      = "message_start"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
)

// Anthropic content block kinds.
const (
	BlockTypeText     = "text"
	BlockTypeThinking = "thinking"
	BlockTypeToolUse  = "tool_use"
)

// Anthropic delta kinds.
const (
	DeltaTypeText      = "text_delta"
	DeltaTypeThinking  = "thinking_delta"
	DeltaTypeInputJSON = "input_json_delta"
)

// Event is one outbound Anthropic SSE event. Data's "type" field always
// duplicates Type, matching the wire contract.
type Event struct {
	Type string
	Data map[string]interface{}
}

// MarshalSSE renders the event in "event: <type>\ndata: <json>\n\n" form.
func (e Event) MarshalSSE() ([]byte, error) {
	body, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+32)
	out = append(out, "event: "...)
	out = append(out, e.Type...)
	out = append(out, "\ndata: "...)
	out = append(out, body...)
	out = append(out, "\n\n"...)
	return out, nil
}

func newEvent(typ string, data map[string]interface{}) Event {
	data["type"] = typ
	return Event{Type: typ, Data: data}
}

// NewMessageStartEvent builds the prelude message_start event shared by the
// streaming translator and the synthetic message builders.
func NewMessageStartEvent(model string) Event {
	return newEvent(EventMessageStart, map[string]interface{}{
		"message": map[string]interface{}{
			"id":            "msg_" + strconv.FormatInt(time.Now().UnixNano(), 10),
			"type":          "message",
			"role":          "assistant",
			"content":       []interface{}{},
			"model":         model,
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage": map[string]interface{}{
				"input_tokens":  0,
				"output_tokens": 0,
			},
		},
	})
}
