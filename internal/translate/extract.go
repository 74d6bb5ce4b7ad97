package translate

import (
	"github.com/relaybridge/anthropic-openai-proxy/internal/model"
)

// ImageTokenCost is the flat per-image token estimate used by the
// count_tokens helper, since the proxy does not decode image bytes to
// measure their true footprint.
const ImageTokenCost = 85

// ExtractText concatenates every text-bearing piece of an inbound request
// (system prompt, message text blocks, thinking blocks) into a single
// string for token counting. Images and tool payloads are excluded; their
// cost is reported separately by CountImages.
func ExtractText(req *model.Request) string {
	var out string
	if sys := req.SystemText(); sys != "" {
		out += sys + "\n"
	}
	for _, msg := range req.Messages {
		if s, ok := msg.ContentAsString(); ok {
			out += s + "\n"
			continue
		}
		blocks, ok := model.ParseContentBlocks(msg.Content)
		if !ok {
			continue
		}
		for _, b := range blocks {
			switch {
			case b.OfText != nil:
				out += b.OfText.Text + "\n"
			case b.OfThinking != nil:
				out += b.OfThinking.Thinking + "\n"
			}
		}
	}
	return out
}

// CountImages returns the number of image blocks across every message, for
// the flat ImageTokenCost estimate.
func CountImages(req *model.Request) int {
	n := 0
	for _, msg := range req.Messages {
		blocks, ok := model.ParseContentBlocks(msg.Content)
		if !ok {
			continue
		}
		for _, b := range blocks {
			if b.OfImage != nil {
				n++
			}
		}
	}
	return n
}
