// Package synth builds complete, synthetic Anthropic SSE message bodies for
// the two cases that never touch the streaming path: a 404 model-not-found
// reply and a non-retryable upstream error reply.
package synth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/relaybridge/anthropic-openai-proxy/internal/catalog"
	"github.com/relaybridge/anthropic-openai-proxy/internal/stream"
	"github.com/relaybridge/anthropic-openai-proxy/internal/translate"
)

// ModelNotFound renders the full SSE event sequence for a 404 response when
// the catalog is non-empty: a single text block with a markdown model
// listing, then a stop with stop_reason "end_turn".
func ModelNotFound(requestedModel string, entries []catalog.Entry) []stream.Event {
	return syntheticMessage(requestedModel, modelListMarkdown(requestedModel, entries), translate.StopReasonEndTurn)
}

// NonRetryableError renders the full SSE event sequence for a non-retryable,
// non-404 upstream failure: a single text block formatted per the error
// formatter, stop_reason "error".
func NonRetryableError(requestedModel string, message string, rawJSON json.RawMessage) []stream.Event {
	body := stream.FormatBackendError(message, rawJSON)
	return syntheticMessage(requestedModel, body, translate.StopReasonError)
}

func syntheticMessage(model, text, stopReason string) []stream.Event {
	var events []stream.Event

	events = append(events, stream.NewMessageStartEvent(model))

	events = append(events, evt(stream.EventContentBlockStart, map[string]interface{}{
		"index": 0,
		"content_block": map[string]interface{}{
			"type": stream.BlockTypeText,
			"text": "",
		},
	}))
	events = append(events, evt(stream.EventContentBlockDelta, map[string]interface{}{
		"index": 0,
		"delta": map[string]interface{}{
			"type": stream.DeltaTypeText,
			"text": text,
		},
	}))
	events = append(events, evt(stream.EventContentBlockStop, map[string]interface{}{"index": 0}))

	events = append(events, evt(stream.EventMessageDelta, map[string]interface{}{
		"delta": map[string]interface{}{
			"stop_reason":   stopReason,
			"stop_sequence": nil,
		},
		"usage": map[string]interface{}{
			"output_tokens": 0,
		},
	}))
	events = append(events, evt(stream.EventMessageStop, map[string]interface{}{}))

	return events
}

func evt(typ string, data map[string]interface{}) stream.Event {
	data["type"] = typ
	return stream.Event{Type: typ, Data: data}
}

// modelListMarkdown renders the two-section (REASONING / STANDARD) model
// listing, each section as two side-by-side columns of price-tier-prefixed
// model IDs.
func modelListMarkdown(requestedModel string, entries []catalog.Entry) string {
	var reasoning, standard []catalog.Entry
	for _, e := range entries {
		if hasReasoningFeature(e) {
			reasoning = append(reasoning, e)
		} else {
			standard = append(standard, e)
		}
	}
	sortEntries(reasoning)
	sortEntries(standard)

	var b strings.Builder
	fmt.Fprintf(&b, "❌ Model `%s` not found.\n\n## 📋 Available Models (%d total)\n\n", requestedModel, len(entries))

	if len(reasoning) > 0 {
		b.WriteString("### 🧠 REASONING (Extended Thinking)\n\n")
		b.WriteString(twoColumnList(reasoning))
		b.WriteString("\n")
	}
	if len(standard) > 0 {
		b.WriteString("### ⚡ STANDARD\n\n")
		b.WriteString(twoColumnList(standard))
		b.WriteString("\n")
	}

	b.WriteString("---\n\n💡 **To switch models:** Use `/model <model-name>`")
	return b.String()
}

func hasReasoningFeature(e catalog.Entry) bool {
	for _, f := range e.SupportedFeatures {
		if strings.Contains(strings.ToLower(f), "reasoning") {
			return true
		}
	}
	return false
}

// sortEntries orders by the provider segment of "provider/name" IDs
// ascending, then by the name segment descending so each provider's newest
// model lists first.
func sortEntries(entries []catalog.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		iProvider, iName := splitModelID(entries[i].ID)
		jProvider, jName := splitModelID(entries[j].ID)
		if iProvider != jProvider {
			return iProvider < jProvider
		}
		return iName > jName
	})
}

func splitModelID(id string) (provider, name string) {
	parts := strings.SplitN(strings.ToLower(id), "/", 2)
	provider = parts[0]
	if len(parts) > 1 {
		name = parts[1]
	}
	return provider, name
}

// twoColumnList folds the entries into two side-by-side columns: the first
// half down the left, the second half down the right.
func twoColumnList(entries []catalog.Entry) string {
	var b strings.Builder
	half := (len(entries) + 1) / 2
	for i := 0; i < half; i++ {
		left := fmt.Sprintf("%-4s %s", translate.PriceTier(entries[i].InputPriceUSD, entries[i].OutputPriceUSD), entries[i].ID)
		if i+half < len(entries) {
			e := entries[i+half]
			right := fmt.Sprintf("%-4s %s", translate.PriceTier(e.InputPriceUSD, e.OutputPriceUSD), e.ID)
			fmt.Fprintf(&b, "  %-48s %s\n", left, right)
		} else {
			fmt.Fprintf(&b, "  %s\n", left)
		}
	}
	return b.String()
}
