package stream

import (
	"strconv"

	"github.com/relaybridge/anthropic-openai-proxy/internal/translate"
)

// toolSlot records a tool-use block opened in response to an OpenAI
// tool_calls delta.
type toolSlot struct {
	blockIndex int
	id         string
	name       string
}

// blockState is the per-request block state machine described by the data
// model: at most one open text block, at most one open thinking block, and
// an injective OpenAI-index-to-block-index map for tool calls, opened in
// first-appearance order.
type blockState struct {
	nextBlockIndex int

	textOpen  bool
	textIndex int

	thinkingOpen  bool
	thinkingIndex int

	toolOrder []int        // OpenAI indices, in first-appearance order
	tools     map[int]*toolSlot

	finalStopReason string
	outputTokens    int64
	done            bool
	fatalError      bool
}

func newBlockState() *blockState {
	return &blockState{
		tools:           make(map[int]*toolSlot),
		finalStopReason: translate.StopReasonEndTurn,
	}
}

func (s *blockState) openThinking(emit func(Event)) {
	if s.thinkingOpen {
		return
	}
	s.thinkingIndex = s.nextBlockIndex
	s.nextBlockIndex++
	s.thinkingOpen = true
	emit(newEvent(EventContentBlockStart, map[string]interface{}{
		"index": s.thinkingIndex,
		"content_block": map[string]interface{}{
			"type":     BlockTypeThinking,
			"thinking": "",
		},
	}))
}

func (s *blockState) closeThinking(emit func(Event)) {
	if !s.thinkingOpen {
		return
	}
	emit(newEvent(EventContentBlockStop, map[string]interface{}{"index": s.thinkingIndex}))
	s.thinkingOpen = false
}

func (s *blockState) openText(emit func(Event)) {
	if s.textOpen {
		return
	}
	s.textIndex = s.nextBlockIndex
	s.nextBlockIndex++
	s.textOpen = true
	emit(newEvent(EventContentBlockStart, map[string]interface{}{
		"index": s.textIndex,
		"content_block": map[string]interface{}{
			"type": BlockTypeText,
			"text": "",
		},
	}))
}

func (s *blockState) closeText(emit func(Event)) {
	if !s.textOpen {
		return
	}
	emit(newEvent(EventContentBlockStop, map[string]interface{}{"index": s.textIndex}))
	s.textOpen = false
}

// openOrGetTool returns the block index for the given OpenAI tool index,
// opening a new tool_use block on first appearance.
func (s *blockState) openOrGetTool(openaiIndex int, id, name string, emit func(Event)) int {
	if slot, ok := s.tools[openaiIndex]; ok {
		return slot.blockIndex
	}
	blockIndex := s.nextBlockIndex
	s.nextBlockIndex++
	if id == "" {
		id = "tool_" + strconv.Itoa(openaiIndex)
	}
	if name == "" {
		name = "tool"
	}
	slot := &toolSlot{blockIndex: blockIndex, id: id, name: name}
	s.tools[openaiIndex] = slot
	s.toolOrder = append(s.toolOrder, openaiIndex)

	emit(newEvent(EventContentBlockStart, map[string]interface{}{
		"index": blockIndex,
		"content_block": map[string]interface{}{
			"type":  BlockTypeToolUse,
			"id":    id,
			"name":  name,
			"input": map[string]interface{}{},
		},
	}))
	return blockIndex
}

// closeAllTools closes every opened tool block in first-appearance order.
func (s *blockState) closeAllTools(emit func(Event)) {
	for _, openaiIndex := range s.toolOrder {
		slot := s.tools[openaiIndex]
		emit(newEvent(EventContentBlockStop, map[string]interface{}{"index": slot.blockIndex}))
	}
}
