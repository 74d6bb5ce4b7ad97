// Package stream implements the core SSE-to-SSE translation engine: it
// consumes OpenAI-shaped chat-completion chunks and produces the Anthropic
// message/content-block event sequence described by the block state
// machine in state.go.
package stream

import (
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/relaybridge/anthropic-openai-proxy/internal/breaker"
	"github.com/relaybridge/anthropic-openai-proxy/internal/sse"
	"github.com/relaybridge/anthropic-openai-proxy/internal/translate"
)

// OutboundChannelCapacity is the fixed backpressure buffer between the
// streaming task and the response writer.
const OutboundChannelCapacity = 64

// chunk is the loosely-typed shape of one backend SSE data payload. It is
// hand-decoded rather than bound to openai.ChatCompletionChunk because the
// translator must also recognize the non-stream "message" fallback shape
// and a bare top-level "error" object, neither of which the streaming SDK
// type models.
type chunk struct {
	Choices []choiceChunk    `json:"choices"`
	Usage   *usageChunk      `json:"usage"`
	Error   *json.RawMessage `json:"error"`
}

type choiceChunk struct {
	FinishReason string      `json:"finish_reason"`
	Delta        deltaChunk  `json:"delta"`
	Message      *deltaChunk `json:"message"`
}

type deltaChunk struct {
	Content          string          `json:"content"`
	ReasoningContent string          `json:"reasoning_content"`
	Refusal          string          `json:"refusal"`
	ToolCalls        []toolCallDelta `json:"tool_calls"`
}

type toolCallDelta struct {
	Index    int              `json:"index"`
	ID       string           `json:"id"`
	Function functionCallPart `json:"function"`
}

type functionCallPart struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type usageChunk struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// Translate reads the backend's raw SSE bytes from body, extracts the
// data payloads with its own sse.Parser, drives the block state machine,
// and sends Anthropic events to emit. model is the value reported in message_start. br, if non-nil,
// records success/failure for the circuit breaker once the stream
// concludes. Translate always drains body to completion before returning
// so the backend connection is not abruptly cancelled.
func Translate(body io.Reader, model string, emit chan<- Event, br *breaker.Breaker, log logrus.FieldLogger) {
	defer close(emit)

	send := func(e Event) { emit <- e }

	send(messageStartEvent(model))

	state := newBlockState()
	parser := sse.New(log)

	buf := make([]byte, 32*1024)
	for !state.done {
		n, err := body.Read(buf)
		if n > 0 {
			for _, payload := range parser.Push(buf[:n]) {
				processPayload(payload, state, send, log)
				if state.done {
					break
				}
			}
		}
		if err != nil {
			break
		}
	}
	if !state.done {
		for _, payload := range parser.Flush() {
			processPayload(payload, state, send, log)
		}
	}

	runPostlude(state, send)

	drain(body)

	if br != nil {
		if state.fatalError {
			br.RecordFailure()
		} else {
			br.RecordSuccess()
		}
	}
}

func messageStartEvent(model string) Event {
	return NewMessageStartEvent(model)
}

func processPayload(payload string, state *blockState, send func(Event), log logrus.FieldLogger) {
	if payload == "[DONE]" {
		state.done = true
		return
	}
	if payload == "" {
		return
	}

	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		var probe struct {
			Error *json.RawMessage `json:"error"`
		}
		if jsonErr := json.Unmarshal([]byte(payload), &probe); jsonErr == nil && probe.Error != nil {
			handleErrorChunk(*probe.Error, state, send)
			return
		}
		if log != nil {
			log.WithError(err).Warn("stream: skipping unparseable SSE payload")
		}
		return
	}

	if c.Error != nil {
		handleErrorChunk(*c.Error, state, send)
		return
	}

	if c.Usage != nil && c.Usage.CompletionTokens > 0 {
		state.outputTokens = c.Usage.CompletionTokens
	}

	if len(c.Choices) == 0 {
		return
	}

	choice := c.Choices[0]
	if choice.FinishReason != "" {
		state.finalStopReason = translate.TranslateFinishReason(choice.FinishReason)
	}

	if choice.Message != nil {
		if choice.Message.Content != "" {
			state.closeThinking(send)
			state.openText(send)
			send(textDelta(state.textIndex, choice.Message.Content))
		}
		return
	}

	handleDelta(choice.Delta, state, send)
}

func handleDelta(delta deltaChunk, state *blockState, send func(Event)) {
	if delta.ReasoningContent != "" {
		state.openThinking(send)
		send(newEvent(EventContentBlockDelta, map[string]interface{}{
			"index": state.thinkingIndex,
			"delta": map[string]interface{}{
				"type":     DeltaTypeThinking,
				"thinking": delta.ReasoningContent,
			},
		}))
	}

	text := delta.Content
	if delta.Refusal != "" {
		text = delta.Refusal
	}
	if text != "" {
		state.closeThinking(send)
		state.openText(send)
		send(textDelta(state.textIndex, text))
	}

	if len(delta.ToolCalls) > 0 {
		state.closeText(send)
		for _, tc := range delta.ToolCalls {
			blockIndex := state.openOrGetTool(tc.Index, tc.ID, tc.Function.Name, send)
			if tc.Function.Arguments != "" {
				send(newEvent(EventContentBlockDelta, map[string]interface{}{
					"index": blockIndex,
					"delta": map[string]interface{}{
						"type":         DeltaTypeInputJSON,
						"partial_json": tc.Function.Arguments,
					},
				}))
			}
		}
	}
}

func textDelta(index int, text string) Event {
	return newEvent(EventContentBlockDelta, map[string]interface{}{
		"index": index,
		"delta": map[string]interface{}{
			"type": DeltaTypeText,
			"text": text,
		},
	})
}

func handleErrorChunk(rawErr json.RawMessage, state *blockState, send func(Event)) {
	state.closeText(send)

	var errObj struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(rawErr, &errObj)
	message := errObj.Message
	if message == "" {
		message = string(rawErr)
	}

	state.openText(send)
	send(textDelta(state.textIndex, FormatBackendError(message, rawErr)))
	state.closeText(send)

	state.finalStopReason = translate.StopReasonError
	state.done = true
	state.fatalError = true
}

func runPostlude(state *blockState, send func(Event)) {
	state.closeThinking(send)
	state.closeText(send)
	state.closeAllTools(send)

	send(newEvent(EventMessageDelta, map[string]interface{}{
		"delta": map[string]interface{}{
			"stop_reason":   state.finalStopReason,
			"stop_sequence": nil,
		},
		"usage": map[string]interface{}{
			"output_tokens": state.outputTokens,
		},
	}))
	send(newEvent(EventMessageStop, map[string]interface{}{}))
}

func drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, body)
}
