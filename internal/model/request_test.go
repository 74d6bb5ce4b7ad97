package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_ContentAsString(t *testing.T) {
	m := Message{Content: json.RawMessage(`"hello"`)}
	s, ok := m.ContentAsString()
	require.True(t, ok)
	require.Equal(t, "hello", s)
}

func TestMessage_ContentAsString_FalseForArray(t *testing.T) {
	m := Message{Content: json.RawMessage(`[{"type":"text","text":"x"}]`)}
	_, ok := m.ContentAsString()
	require.False(t, ok)
}

func TestParseContentBlocks_AllVariants(t *testing.T) {
	raw := json.RawMessage(`[
		{"type":"text","text":"hi"},
		{"type":"image","source":{"media_type":"image/png","data":"AAA"}},
		{"type":"thinking","thinking":"hmm"},
		{"type":"tool_use","id":"t1","name":"f","input":{"a":1}},
		{"type":"tool_result","tool_use_id":"t1","content":"ok","is_error":true}
	]`)
	blocks, ok := ParseContentBlocks(raw)
	require.True(t, ok)
	require.Len(t, blocks, 5)

	require.Equal(t, "hi", blocks[0].OfText.Text)
	require.Equal(t, "image/png", blocks[1].OfImage.MediaType)
	require.Equal(t, "hmm", blocks[2].OfThinking.Thinking)
	require.Equal(t, "t1", blocks[3].OfToolUse.ID)
	require.Equal(t, "f", blocks[3].OfToolUse.Name)
	require.Equal(t, "t1", blocks[4].OfToolResult.ToolUseID)
	require.True(t, blocks[4].OfToolResult.IsError)
}

func TestParseContentBlocks_UnknownTypePassesThroughAsNoOp(t *testing.T) {
	raw := json.RawMessage(`[{"type":"future_block","foo":"bar"}]`)
	blocks, ok := ParseContentBlocks(raw)
	require.True(t, ok)
	require.Len(t, blocks, 1)
	require.Equal(t, "future_block", blocks[0].Type)
	require.Nil(t, blocks[0].OfText)
}

func TestParseContentBlocks_MalformedReturnsNotOK(t *testing.T) {
	_, ok := ParseContentBlocks(json.RawMessage(`not json`))
	require.False(t, ok)
}

func TestRequest_SystemText_BareString(t *testing.T) {
	r := Request{System: json.RawMessage(`"be nice"`)}
	require.Equal(t, "be nice", r.SystemText())
}

func TestRequest_SystemText_BlockArrayConcatenatesTextOnly(t *testing.T) {
	r := Request{System: json.RawMessage(`[{"type":"text","text":"a"},{"type":"image","source":{"media_type":"x","data":"y"}},{"type":"text","text":"b"}]`)}
	require.Equal(t, "a\nb", r.SystemText())
}

func TestRequest_SystemText_Absent(t *testing.T) {
	r := Request{}
	require.Equal(t, "", r.SystemText())
}
