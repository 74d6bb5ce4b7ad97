package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/relaybridge/anthropic-openai-proxy/internal/model"
	"github.com/relaybridge/anthropic-openai-proxy/internal/stream"
	"github.com/relaybridge/anthropic-openai-proxy/internal/synth"
	"github.com/relaybridge/anthropic-openai-proxy/internal/translate"
)

// retryableStatuses keep their numeric status on the way back to the
// client; they are not synthesized because the client's own retry logic is
// expected to fire.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

func (s *Server) handleMessages(c *gin.Context) {
	if !s.breaker.ShouldAllowRequest() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"type": "backend_unavailable_circuit_open"}})
		return
	}

	var in model.Request
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"type": "invalid_request", "message": err.Error()}})
		return
	}

	clientKey := extractClientKey(c.GetHeader("Authorization"), c.GetHeader("x-api-key"))
	if clientKey == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"type": "missing_api_key"}})
		return
	}
	if isAnthropicOAuthKey(clientKey) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"type": "invalid_auth_token"}})
		return
	}
	if s.log != nil {
		s.log.WithField("client_key", maskToken(clientKey)).Debug("client API key accepted")
	}

	normalizedModel := s.catalog.NormalizeModelName(in.Model)

	outReq, err := translate.Request(&in, normalizedModel, s.catalog, s.log)
	if err != nil {
		if ve, ok := err.(*translate.ValidationError); ok {
			status := ve.Status
			if status == 0 {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": gin.H{"type": ve.Tag, "message": ve.Message}})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"type": "invalid_request", "message": err.Error()}})
		return
	}

	payload, err := json.Marshal(outReq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"type": "internal_error"}})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, s.cfg.BackendURL, bytes.NewReader(payload))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"type": "internal_error"}})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+clientKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.breaker.RecordFailure()
		c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"type": "backend_unavailable", "message": err.Error()}})
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.breaker.RecordFailure()
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		s.setSSEHeaders(c)
		s.streamBackend(c, resp.Body, normalizedModel)

	case resp.StatusCode == http.StatusNotFound:
		if snap := s.catalog.Snapshot(); len(snap) > 0 {
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			s.setSSEHeaders(c)
			c.Status(http.StatusOK)
			s.writeEvents(c, synth.ModelNotFound(in.Model, snap))
			return
		}
		s.writeNonRetryable(c, resp, normalizedModel)

	case retryableStatuses[resp.StatusCode]:
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		c.JSON(resp.StatusCode, gin.H{"error": gin.H{
			"type":    "backend_error_retryable",
			"message": string(body),
		}})

	default:
		s.writeNonRetryable(c, resp, normalizedModel)
	}
}

func (s *Server) writeNonRetryable(c *gin.Context, resp *http.Response, normalizedModel string) {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	message := string(body)
	var raw json.RawMessage
	if errField := gjson.GetBytes(body, "error"); errField.Exists() {
		raw = json.RawMessage(errField.Raw)
		if msg := errField.Get("message"); msg.String() != "" {
			message = msg.String()
		}
	}

	s.setSSEHeaders(c)
	c.Status(http.StatusOK)
	s.writeEvents(c, synth.NonRetryableError(normalizedModel, message, raw))
}

func (s *Server) streamBackend(c *gin.Context, body io.ReadCloser, normalizedModel string) {
	defer body.Close()
	c.Status(http.StatusOK)

	emit := make(chan stream.Event, stream.OutboundChannelCapacity)
	go stream.Translate(body, normalizedModel, emit, s.breaker, s.log)

	flusher, _ := c.Writer.(http.Flusher)
	for e := range emit {
		wireBytes, err := e.MarshalSSE()
		if err != nil {
			continue
		}
		_, _ = c.Writer.Write(wireBytes)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) writeEvents(c *gin.Context, events []stream.Event) {
	flusher, _ := c.Writer.(http.Flusher)
	for _, e := range events {
		wireBytes, err := e.MarshalSSE()
		if err != nil {
			continue
		}
		_, _ = c.Writer.Write(wireBytes)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}
