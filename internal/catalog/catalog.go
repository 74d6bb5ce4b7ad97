// Package catalog maintains a process-scoped, periodically refreshed
// snapshot of the backend's available models. Readers always observe a
// complete prior or current snapshot, never a partial update.
package catalog

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// RefreshInterval is the cadence of the background refresh loop.
const RefreshInterval = 60 * time.Second

// Entry is one model's catalog record.
type Entry struct {
	ID                string
	InputPriceUSD     *float64
	OutputPriceUSD    *float64
	SupportedFeatures []string
}

// HasFeature reports whether name (case-insensitive) is among the entry's
// supported_features.
func (e Entry) HasFeature(name string) bool {
	for _, f := range e.SupportedFeatures {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// Catalog holds the current model snapshot and knows how to refresh it from
// the backend's models endpoint.
type Catalog struct {
	httpClient *http.Client
	modelsURL  string
	log        logrus.FieldLogger

	mu       sync.RWMutex
	snapshot []Entry
}

// New derives the models endpoint from the backend's chat-completions URL
// and constructs an empty catalog. Call Refresh once synchronously at
// startup, then StartBackgroundRefresh.
func New(chatCompletionsURL string, httpClient *http.Client, log logrus.FieldLogger) *Catalog {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Catalog{
		httpClient: httpClient,
		modelsURL:  deriveModelsURL(chatCompletionsURL),
		log:        log,
	}
}

func deriveModelsURL(chatURL string) string {
	const suffix = "/v1/chat/completions"
	if strings.HasSuffix(chatURL, suffix) {
		return strings.TrimSuffix(chatURL, suffix) + "/v1/models"
	}
	return strings.TrimRight(chatURL, "/") + "/../models"
}

// Refresh performs one synchronous fetch-and-swap. Failure is returned to
// the caller but is always non-fatal: the previous snapshot, if any,
// remains in effect.
func (c *Catalog) Refresh(ctx context.Context) error {
	entries, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.snapshot = entries
	c.mu.Unlock()
	return nil
}

func (c *Catalog) fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, item := range gjson.GetBytes(body, "data").Array() {
		entries = append(entries, Entry{
			ID:                item.Get("id").String(),
			InputPriceUSD:     firstUSD(item, "price.input.usd", "pricing.prompt"),
			OutputPriceUSD:    firstUSD(item, "price.output.usd", "pricing.completion"),
			SupportedFeatures: stringsOf(item.Get("supported_features")),
		})
	}
	return entries, nil
}

func firstUSD(item gjson.Result, paths ...string) *float64 {
	for _, p := range paths {
		if r := item.Get(p); r.Exists() {
			v := r.Float()
			return &v
		}
	}
	return nil
}

func stringsOf(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	var out []string
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}

// StartBackgroundRefresh launches the periodic refresh goroutine. It stops
// when ctx is canceled.
func (c *Catalog) StartBackgroundRefresh(ctx context.Context) {
	ticker := time.NewTicker(RefreshInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Refresh(ctx); err != nil && c.log != nil {
					c.log.WithError(err).Warn("catalog: background refresh failed, keeping previous snapshot")
				}
			}
		}
	}()
}

// Snapshot returns the current full set of entries. The returned slice must
// not be mutated by the caller.
func (c *Catalog) Snapshot() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// NormalizeModelName resolves input against the current snapshot: an exact
// match passes through unchanged; a case-insensitive match is corrected to
// the catalog's casing; no match passes through unchanged.
func (c *Catalog) NormalizeModelName(input string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.snapshot {
		if e.ID == input {
			return input
		}
	}
	for _, e := range c.snapshot {
		if strings.EqualFold(e.ID, input) {
			return e.ID
		}
	}
	return input
}

// SupportsThinking implements translate.ThinkingCapable: it reports whether
// the normalized model's supported_features contains "thinking" or
// "extended_thinking".
func (c *Catalog) SupportsThinking(normalizedModel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.snapshot {
		if e.ID == normalizedModel {
			return e.HasFeature("thinking") || e.HasFeature("extended_thinking")
		}
	}
	return false
}
