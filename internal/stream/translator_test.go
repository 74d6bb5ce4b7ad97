package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaybridge/anthropic-openai-proxy/internal/breaker"
)

func drainEvents(t *testing.T, body string) []Event {
	t.Helper()
	emit := make(chan Event, OutboundChannelCapacity)
	done := make(chan struct{})
	var events []Event
	go func() {
		for e := range emit {
			events = append(events, e)
		}
		close(done)
	}()
	Translate(strings.NewReader(body), "gpt-4o", emit, nil, nil)
	<-done
	return events
}

func typesOf(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestTranslate_S1_PlainTextStreaming(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":"He"}}]}

data: {"choices":[{"delta":{"content":"llo"}}]}

data: {"choices":[{"delta":{"content":""},"finish_reason":"stop"}]}

data: [DONE]

`
	events := drainEvents(t, body)
	require.Equal(t, []string{
		EventMessageStart,
		EventContentBlockStart,
		EventContentBlockDelta,
		EventContentBlockDelta,
		EventContentBlockStop,
		EventMessageDelta,
		EventMessageStop,
	}, typesOf(events))

	require.Equal(t, "end_turn", events[5].Data["delta"].(map[string]interface{})["stop_reason"])
}

func TestTranslate_S2_ThinkingThenText(t *testing.T) {
	body := `data: {"choices":[{"delta":{"reasoning_content":"th"}}]}

data: {"choices":[{"delta":{"reasoning_content":"ink"}}]}

data: {"choices":[{"delta":{"content":"Answer"},"finish_reason":"stop"}]}

data: [DONE]

`
	events := drainEvents(t, body)
	require.Equal(t, []string{
		EventMessageStart,
		EventContentBlockStart, // thinking
		EventContentBlockDelta,
		EventContentBlockDelta,
		EventContentBlockStop, // thinking closes
		EventContentBlockStart, // text
		EventContentBlockDelta,
		EventContentBlockStop,
		EventMessageDelta,
		EventMessageStop,
	}, typesOf(events))

	thinkingStart := events[1].Data["content_block"].(map[string]interface{})
	require.Equal(t, BlockTypeThinking, thinkingStart["type"])
	textStart := events[5].Data["content_block"].(map[string]interface{})
	require.Equal(t, BlockTypeText, textStart["type"])
}

func TestTranslate_S3_ToolUseSplitAcrossDeltas(t *testing.T) {
	body := `data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"t1","function":{"name":"get_weather"}}]}}]}

data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\":"}}]}}]}

data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"NYC\"}"}}]}}]}

data: {"choices":[{"finish_reason":"tool_calls"}]}

data: [DONE]

`
	events := drainEvents(t, body)
	require.Equal(t, []string{
		EventMessageStart,
		EventContentBlockStart,
		EventContentBlockDelta,
		EventContentBlockDelta,
		EventContentBlockStop,
		EventMessageDelta,
		EventMessageStop,
	}, typesOf(events))

	start := events[1].Data["content_block"].(map[string]interface{})
	require.Equal(t, BlockTypeToolUse, start["type"])
	require.Equal(t, "t1", start["id"])
	require.Equal(t, "get_weather", start["name"])

	require.Equal(t, "tool_use", events[5].Data["delta"].(map[string]interface{})["stop_reason"])
}

func TestTranslate_S4_MidStreamError(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":"Partial"}}]}

data: {"error":{"message":"rate limit exceeded"}}

`
	events := drainEvents(t, body)
	require.Equal(t, []string{
		EventMessageStart,
		EventContentBlockStart,
		EventContentBlockDelta,
		EventContentBlockStop,
		EventContentBlockStart,
		EventContentBlockDelta,
		EventContentBlockStop,
		EventMessageDelta,
		EventMessageStop,
	}, typesOf(events))

	errText := events[5].Data["delta"].(map[string]interface{})["text"].(string)
	require.Contains(t, errText, "⚠️ Backend Error")
	require.Contains(t, errText, "rate limit exceeded")
	require.Contains(t, errText, "Wait a moment")

	require.Equal(t, "error", events[7].Data["delta"].(map[string]interface{})["stop_reason"])
}

func TestTranslate_UsageFromFinalChunkReported(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":"hi"},"finish_reason":"stop"}]}

data: {"choices":[],"usage":{"prompt_tokens":12,"completion_tokens":7}}

data: [DONE]

`
	events := drainEvents(t, body)
	last := events[len(events)-2]
	require.Equal(t, EventMessageDelta, last.Type)
	usage := last.Data["usage"].(map[string]interface{})
	require.Equal(t, int64(7), usage["output_tokens"])
}

func TestTranslate_UnparseableLineSkipped(t *testing.T) {
	body := `data: not json at all

data: {"choices":[{"delta":{"content":"ok"},"finish_reason":"stop"}]}

data: [DONE]

`
	events := drainEvents(t, body)
	require.Equal(t, []string{
		EventMessageStart,
		EventContentBlockStart,
		EventContentBlockDelta,
		EventContentBlockStop,
		EventMessageDelta,
		EventMessageStop,
	}, typesOf(events))
}

func TestTranslate_RecordsBreakerSuccessOnCleanFinish(t *testing.T) {
	b := breaker.New(true)
	b.RecordFailure()
	b.RecordFailure()

	body := `data: {"choices":[{"delta":{"content":"hi"},"finish_reason":"stop"}]}

data: [DONE]

`
	emit := make(chan Event, OutboundChannelCapacity)
	done := make(chan struct{})
	go func() {
		for range emit {
		}
		close(done)
	}()
	Translate(strings.NewReader(body), "m", emit, b, nil)
	<-done

	require.False(t, b.IsOpen())
}

func TestTranslate_RecordsBreakerFailureOnFatalError(t *testing.T) {
	b := breaker.New(true)

	body := `data: {"error":{"message":"insufficient quota"}}

`
	emit := make(chan Event, OutboundChannelCapacity)
	done := make(chan struct{})
	go func() {
		for range emit {
		}
		close(done)
	}()
	Translate(strings.NewReader(body), "m", emit, b, nil)
	<-done

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	require.True(t, b.IsOpen())
}
