// Package server wires together the breaker, catalog, translator, and
// synthesizer behind a gin router.
package server

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/relaybridge/anthropic-openai-proxy/internal/breaker"
	"github.com/relaybridge/anthropic-openai-proxy/internal/catalog"
	"github.com/relaybridge/anthropic-openai-proxy/internal/config"
)

// Server holds the process-scoped dependencies shared across requests.
type Server struct {
	cfg     config.Config
	breaker *breaker.Breaker
	catalog *catalog.Catalog
	client  *http.Client
	log     logrus.FieldLogger
}

// New constructs a Server. httpClient should already be configured with the
// backend timeout and connection-pool settings described in the
// concurrency model.
func New(cfg config.Config, br *breaker.Breaker, cat *catalog.Catalog, httpClient *http.Client, log logrus.FieldLogger) *Server {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.BackendTimeout(),
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   clientConnectTimeout,
					KeepAlive: 60 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 1024,
			},
		}
	}
	return &Server{cfg: cfg, breaker: br, catalog: cat, client: httpClient, log: log}
}

// maxRequestBodyBytes is the gateway-level request body cap. The messages
// handler enforces the tighter per-field limits on top of this.
const maxRequestBodyBytes = 10 << 20

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBodyBytes)
		c.Next()
	})

	r.POST("/v1/messages", s.handleMessages)
	r.POST("/v1/messages/count_tokens", s.handleCountTokens)
	r.GET("/health", s.handleHealth)
	return r
}

// handleHealth reports process status, matching the documented shape
// {status, backend_url, models_cached, circuit_breaker:{is_open,
// consecutive_failures}}.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"backend_url":   s.cfg.BackendURL,
		"models_cached": len(s.catalog.Snapshot()),
		"circuit_breaker": gin.H{
			"is_open":             s.breaker.IsOpen(),
			"consecutive_failures": s.breaker.ConsecutiveFailures(),
		},
	})
}

const clientConnectTimeout = 10 * time.Second
