package translate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaybridge/anthropic-openai-proxy/internal/model"
)

type fakeCatalog struct {
	thinkingModels map[string]bool
}

func (f fakeCatalog) SupportsThinking(m string) bool { return f.thinkingModels[m] }

func int64p(v int64) *int64 { return &v }

func TestRequest_PlainTextUserMessage(t *testing.T) {
	in := &model.Request{
		Messages: []model.Message{
			{Role: "user", Content: json.RawMessage(`"Hi"`)},
		},
	}
	out, err := Request(in, "gpt-4o", nil, nil)
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	require.Equal(t, "user", out.Messages[0].Role)
	require.Equal(t, "Hi", out.Messages[0].Content)
	require.Equal(t, []OAITool{}, out.Tools)
	require.True(t, out.Stream)
}

func TestRequest_SystemPromptPrepended(t *testing.T) {
	in := &model.Request{
		System: json.RawMessage(`"be nice"`),
		Messages: []model.Message{
			{Role: "user", Content: json.RawMessage(`"Hi"`)},
		},
	}
	out, err := Request(in, "gpt-4o", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "system", out.Messages[0].Role)
	require.Equal(t, "be nice", out.Messages[0].Content)
}

func TestRequest_EmptyMessagesRejected(t *testing.T) {
	in := &model.Request{}
	_, err := Request(in, "gpt-4o", nil, nil)
	require.Error(t, err)
	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Equal(t, "empty_messages", ve.Tag)
}

func TestRequest_NoMessagesAfterConversionRejected(t *testing.T) {
	in := &model.Request{
		Messages: []model.Message{
			{Role: "assistant", Content: json.RawMessage(`""`)},
		},
	}
	_, err := Request(in, "gpt-4o", nil, nil)
	require.Error(t, err)
	require.Equal(t, "no_messages", err.(*ValidationError).Tag)
}

func TestRequest_MaxTokensBoundaries(t *testing.T) {
	base := func(mt int64) *model.Request {
		return &model.Request{
			MaxTokens: int64p(mt),
			Messages:  []model.Message{{Role: "user", Content: json.RawMessage(`"Hi"`)}},
		}
	}
	_, err := Request(base(0), "m", nil, nil)
	require.Error(t, err)
	_, err = Request(base(100_001), "m", nil, nil)
	require.Error(t, err)
	_, err = Request(base(1), "m", nil, nil)
	require.NoError(t, err)
	_, err = Request(base(100_000), "m", nil, nil)
	require.NoError(t, err)
}

func TestRequest_TooManyMessagesRejected(t *testing.T) {
	msgs := make([]model.Message, 10_001)
	for i := range msgs {
		msgs[i] = model.Message{Role: "user", Content: json.RawMessage(`"x"`)}
	}
	_, err := Request(&model.Request{Messages: msgs}, "m", nil, nil)
	require.Error(t, err)
	require.Equal(t, "too_many_messages", err.(*ValidationError).Tag)
}

func TestRequest_ToolResultBecomesToolRoleMessage(t *testing.T) {
	content := json.RawMessage(`[{"type":"tool_result","tool_use_id":"t1","content":"42"}]`)
	in := &model.Request{
		Messages: []model.Message{{Role: "user", Content: content}},
	}
	out, err := Request(in, "m", nil, nil)
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	require.Equal(t, "tool", out.Messages[0].Role)
	require.Equal(t, "t1", out.Messages[0].ToolCallID)
	require.Equal(t, "42", out.Messages[0].Content)
}

func TestRequest_ToolResultAndTextEmitsTwoMessages(t *testing.T) {
	content := json.RawMessage(`[
		{"type":"tool_result","tool_use_id":"t1","content":"42"},
		{"type":"text","text":"thanks"}
	]`)
	in := &model.Request{
		Messages: []model.Message{{Role: "user", Content: content}},
	}
	out, err := Request(in, "m", nil, nil)
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
	require.Equal(t, "tool", out.Messages[0].Role)
	require.Equal(t, "user", out.Messages[1].Role)
	require.Equal(t, "thanks", out.Messages[1].Content)
}

func TestRequest_AssistantThinkingAndTextWrapped(t *testing.T) {
	content := json.RawMessage(`[
		{"type":"thinking","thinking":"hmm"},
		{"type":"text","text":"answer"}
	]`)
	in := &model.Request{
		Messages: []model.Message{{Role: "assistant", Content: content}},
	}
	out, err := Request(in, "m", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "<think>hmm</think>\nanswer", out.Messages[0].Content)
}

func TestRequest_AssistantToolUseBecomesToolCalls(t *testing.T) {
	content := json.RawMessage(`[
		{"type":"tool_use","id":"t1","name":"get_weather","input":{"city":"NYC"}}
	]`)
	in := &model.Request{
		Messages: []model.Message{{Role: "assistant", Content: content}},
	}
	out, err := Request(in, "m", nil, nil)
	require.NoError(t, err)
	require.Len(t, out.Messages[0].ToolCalls, 1)
	require.Equal(t, "get_weather", out.Messages[0].ToolCalls[0].Function.Name)
	require.JSONEq(t, `{"city":"NYC"}`, out.Messages[0].ToolCalls[0].Function.Arguments)
}

func TestRequest_TrailingEmptyAssistantDropped(t *testing.T) {
	in := &model.Request{
		Messages: []model.Message{
			{Role: "user", Content: json.RawMessage(`"Hi"`)},
			{Role: "assistant", Content: json.RawMessage(`""`)},
		},
	}
	out, err := Request(in, "m", nil, nil)
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	require.Equal(t, "user", out.Messages[0].Role)
}

func TestRequest_TrailingEmptyAssistantOnlyDropIfNoToolCalls(t *testing.T) {
	content := json.RawMessage(`[{"type":"tool_use","id":"t1","name":"f","input":{}}]`)
	in := &model.Request{
		Messages: []model.Message{
			{Role: "user", Content: json.RawMessage(`"Hi"`)},
			{Role: "assistant", Content: content},
		},
	}
	out, err := Request(in, "m", nil, nil)
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
}

func TestRequest_OtherRoleWithImageProducesParts(t *testing.T) {
	content := json.RawMessage(`[
		{"type":"text","text":"look"},
		{"type":"image","source":{"media_type":"image/png","data":"AAA"}}
	]`)
	in := &model.Request{
		Messages: []model.Message{{Role: "user", Content: content}},
	}
	out, err := Request(in, "m", nil, nil)
	require.NoError(t, err)
	parts, ok := out.Messages[0].Content.([]OAIContentPart)
	require.True(t, ok)
	require.Len(t, parts, 2)
	require.Equal(t, "data:image/png;base64,AAA", parts[1].ImageURL.URL)
}

func TestRequest_ThinkingAutoInjectedWhenCatalogSupportsIt(t *testing.T) {
	in := &model.Request{
		Messages: []model.Message{{Role: "user", Content: json.RawMessage(`"Hi"`)}},
	}
	cat := fakeCatalog{thinkingModels: map[string]bool{"m": true}}
	out, err := Request(in, "m", cat, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"enabled","budget_tokens":10000}`, string(out.Thinking))
}

func TestRequest_ThinkingNotInjectedWhenAbsentFromCatalog(t *testing.T) {
	in := &model.Request{
		Messages: []model.Message{{Role: "user", Content: json.RawMessage(`"Hi"`)}},
	}
	out, err := Request(in, "m", fakeCatalog{}, nil)
	require.NoError(t, err)
	require.Nil(t, out.Thinking)
}

func TestRequest_ContentTooLargeRejected(t *testing.T) {
	big := make([]byte, maxContentBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	payload, _ := json.Marshal(string(big))
	in := &model.Request{
		Messages: []model.Message{{Role: "user", Content: json.RawMessage(payload)}},
	}
	_, err := Request(in, "m", nil, nil)
	require.Error(t, err)
	ve := err.(*ValidationError)
	require.Equal(t, "content_too_large", ve.Tag)
	require.Equal(t, 413, ve.Status)
}
