package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiktoken-go/tokenizer"

	"github.com/relaybridge/anthropic-openai-proxy/internal/model"
	"github.com/relaybridge/anthropic-openai-proxy/internal/translate"
)

// handleCountTokens is a thin, intentionally approximate helper that
// concatenates the request's text content and passes it through a
// tokenizer, adding a flat per-image cost.
func (s *Server) handleCountTokens(c *gin.Context) {
	var in model.Request
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"type": "invalid_request", "message": err.Error()}})
		return
	}

	text := translate.ExtractText(&in)
	tokens := estimateTokenCount(text)
	tokens += translate.CountImages(&in) * translate.ImageTokenCost

	c.JSON(http.StatusOK, gin.H{"input_tokens": tokens})
}

// estimateTokenCount counts text tokens with tiktoken, falling back to a
// character-count/4 approximation if the encoder is unavailable or errors.
func estimateTokenCount(text string) int {
	enc, err := tokenizer.Get(tokenizer.O200kBase)
	if err != nil {
		return len(text) / 4
	}
	n, err := enc.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return n
}
