package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Model is one entry of the provider's /models listing.
type Model struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Pricing Pricing `json:"pricing"`
	Context int     `json:"context_length"`
}

// Pricing values arrive as strings, numbers or nested maps depending on the provider.
type Pricing struct {
	Prompt     any `json:"prompt"`
	Completion any `json:"completion"`
}

// Catalog caches the zero-priced models of an OpenAI-compatible provider and
// refreshes them on demand once the refresh interval has passed.
type Catalog struct {
	hc       *http.Client
	baseURL  string
	apiKey   string
	interval time.Duration

	mu        sync.RWMutex
	ids       []string
	lastFetch time.Time
}

// NewCatalog creates a catalog. refresh <= 0 defaults to one hour.
func NewCatalog(hc *http.Client, baseURL, apiKey string, refresh time.Duration) *Catalog {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if refresh <= 0 {
		refresh = time.Hour
	}
	return &Catalog{hc: hc, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, interval: refresh}
}

// FreeModelIDs returns the cached free model IDs, refreshing when stale. A
// failed refresh keeps serving the previous list; it only errors when nothing
// has ever been fetched.
func (c *Catalog) FreeModelIDs(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	stale := c.lastFetch.IsZero() || time.Since(c.lastFetch) > c.interval
	c.mu.RUnlock()

	if stale {
		if err := c.refresh(ctx); err != nil {
			c.mu.RLock()
			cached := len(c.ids) > 0
			c.mu.RUnlock()
			if !cached {
				return nil, err
			}
			slog.Warn("failed to refresh free models, using cached", slog.Any("error", err))
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.ids...), nil
}

func (c *Catalog) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("build models request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch models: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("models status %d", resp.StatusCode)
	}

	var listing struct {
		Data []Model `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return fmt.Errorf("decode models: %w", err)
	}

	free := make([]Model, 0, len(listing.Data))
	for _, m := range listing.Data {
		if priceIsFree(m.Pricing.Prompt) && priceIsFree(m.Pricing.Completion) {
			free = append(free, m)
		}
	}
	// Larger context windows first, then by ID for a stable order.
	sort.SliceStable(free, func(i, j int) bool {
		if free[i].Context != free[j].Context {
			return free[i].Context > free[j].Context
		}
		return free[i].ID < free[j].ID
	})
	ids := make([]string, len(free))
	for i, m := range free {
		ids[i] = m.ID
	}

	c.mu.Lock()
	c.ids = ids
	c.lastFetch = time.Now()
	c.mu.Unlock()

	slog.Info("fetched free models",
		slog.String("base_url", c.baseURL),
		slog.Int("total_models", len(listing.Data)),
		slog.Int("free_models", len(ids)))
	return nil
}

func priceIsFree(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || s == "0" || s == "0.0"
	case float64:
		return t == 0
	case map[string]any:
		for _, vv := range t {
			if !priceIsFree(vv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
