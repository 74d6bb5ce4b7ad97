package translate

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"
	"github.com/sirupsen/logrus"
)

// Anthropic stop-reason string constants, aliased off the SDK's constants
// rather than hand-written literals.
const (
	StopReasonEndTurn   = string(anthropic.StopReasonEndTurn)
	StopReasonMaxTokens = string(anthropic.StopReasonMaxTokens)
	StopReasonToolUse   = string(anthropic.StopReasonToolUse)
	StopReasonError     = "error"
)

// OpenAI finish reasons not defined in the openai package.
const (
	openaiFinishReasonToolCalls    = "tool_calls"
	openaiFinishReasonFunctionCall = "function_call"
	openaiFinishReasonError        = "error"
)

// TranslateFinishReason maps an OpenAI chunk's finish_reason to an Anthropic
// stop_reason. It is total: every input, including "" and unrecognized
// values, maps to one of {end_turn, max_tokens, tool_use, error}.
func TranslateFinishReason(reason string) string {
	switch reason {
	case string(openai.CompletionChoiceFinishReasonStop):
		return StopReasonEndTurn
	case string(openai.CompletionChoiceFinishReasonLength):
		return StopReasonMaxTokens
	case openaiFinishReasonToolCalls, openaiFinishReasonFunctionCall:
		return StopReasonToolUse
	case string(openai.CompletionChoiceFinishReasonContentFilter):
		return StopReasonEndTurn
	case openaiFinishReasonError:
		return StopReasonError
	default:
		return StopReasonEndTurn
	}
}

// PriceTier buckets a model's per-token pricing into a display tier.
func PriceTier(inputUSD, outputUSD *float64) string {
	if inputUSD == nil && outputUSD == nil {
		return "SUB"
	}
	var sum float64
	if inputUSD != nil {
		sum += *inputUSD
	}
	if outputUSD != nil {
		sum += *outputUSD
	}
	switch {
	case sum == 0:
		return "SUB"
	case sum <= 0.5:
		return "$"
	case sum <= 2:
		return "$$"
	case sum <= 5:
		return "$$$"
	default:
		return "$$$$"
	}
}

// TranslateToolChoice converts an inbound Anthropic tool_choice (bare
// string or object, raw JSON) into the OpenAI wire shape. It is idempotent
// on already-OpenAI shapes: {"type":"function", ...} passes through
// unchanged, as does any string already in {auto,none,required}.
func TranslateToolChoice(raw json.RawMessage, log logrus.FieldLogger) interface{} {
	if len(raw) == 0 {
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		switch asString {
		case "auto", "none", "required":
			return asString
		case "any":
			return "required"
		default:
			if log != nil {
				log.Warnf("translate: unrecognized tool_choice string %q, passing through", asString)
			}
			return asString
		}
	}

	var obj struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		if log != nil {
			log.Warnf("translate: tool_choice is neither string nor object, passing through raw: %v", err)
		}
		var passthrough interface{}
		_ = json.Unmarshal(raw, &passthrough)
		return passthrough
	}

	switch obj.Type {
	case "auto", "none", "required":
		return obj.Type
	case "any":
		return "required"
	case "tool":
		return map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name": obj.Name,
			},
		}
	case "function":
		var passthrough interface{}
		_ = json.Unmarshal(raw, &passthrough)
		return passthrough
	default:
		if log != nil {
			log.Warnf("translate: unrecognized tool_choice type %q, passing through", obj.Type)
		}
		var passthrough interface{}
		_ = json.Unmarshal(raw, &passthrough)
		return passthrough
	}
}
