// Package openaicompat implements an ai.Provider for OpenAI-compatible chat
// completion APIs such as OpenRouter, Groq or OpenAI itself.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/config"
)

const maxResponseBytes = 1 << 20

// Client calls POST {baseURL}/chat/completions.
type Client struct {
	id      string
	baseURL string
	apiKey  string
	headers map[string]string
	hc      *http.Client
	catalog *Catalog
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithCatalog enables free-model discovery through ListModels.
func WithCatalog(cat *Catalog) Option { return func(c *Client) { c.catalog = cat } }

// New builds a client from provider configuration. Per-attempt deadlines come
// from the caller's context, so the HTTP client itself carries no timeout.
func New(pc config.ProviderConfig, opts ...Option) *Client {
	c := &Client{
		id:      pc.ID,
		baseURL: strings.TrimRight(pc.BaseURL, "/"),
		apiKey:  pc.Credential,
		headers: pc.Headers,
		hc:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var (
	_ ai.Provider    = (*Client)(nil)
	_ ai.ModelLister = (*Client)(nil)
)

// ID returns the configured provider ID.
func (c *Client) ID() string { return c.id }

// ListModels returns the zero-priced models advertised by the provider.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c.catalog == nil {
		return nil, errors.New("model discovery not enabled")
	}
	return c.catalog.FreeModelIDs(ctx)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float32         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Code    json.Number `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

// Generate performs one chat completion. 429 and 503 are capacity signals and
// map to RateLimited; every other failure is Fatal.
func (c *Client) Generate(ctx context.Context, model string, req ai.Request) ai.Outcome {
	lg := observability.LoggerFromContext(ctx)
	body := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return ai.Fatal(fmt.Errorf("marshal chat request: %w", err))
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return ai.Fatal(fmt.Errorf("build chat request: %w", err))
	}
	r.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		r.Header.Set(k, v)
	}

	resp, err := c.hc.Do(r)
	if err != nil {
		return ai.Fatal(fmt.Errorf("chat request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ai.Fatal(fmt.Errorf("read chat response: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		retryAfter := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		lg.Warn("ai provider rate limited",
			slog.String("provider", c.id),
			slog.String("model", model),
			slog.Int("status", resp.StatusCode),
			slog.Duration("retry_after", retryAfter),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
		return ai.RateLimited(fmt.Errorf("chat status %d: %s", resp.StatusCode, snippet(raw)), retryAfter)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		lg.Error("ai provider non-2xx",
			slog.String("provider", c.id),
			slog.String("model", model),
			slog.Int("status", resp.StatusCode),
			slog.String("body", snippet(raw)))
		return ai.Fatal(fmt.Errorf("chat status %d: %s", resp.StatusCode, snippet(raw)))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return ai.Fatal(fmt.Errorf("decode chat response: %w", err))
	}
	// OpenRouter reports upstream quota errors inside a 200 body.
	if out.Error != nil {
		if code, _ := out.Error.Code.Int64(); code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable {
			return ai.RateLimited(fmt.Errorf("upstream %d: %s", code, out.Error.Message), 0)
		}
		return ai.Fatal(fmt.Errorf("upstream error %s: %s", out.Error.Code, out.Error.Message))
	}
	if len(out.Choices) == 0 {
		lg.Warn("ai provider returned no choices", slog.String("provider", c.id), slog.String("model", model))
		return ai.Success("")
	}
	if out.Model != "" && out.Model != model {
		lg.Debug("model substitution detected",
			slog.String("provider", c.id),
			slog.String("requested_model", model),
			slog.String("actual_model", out.Model))
	}
	return ai.Success(out.Choices[0].Message.Content)
}

// maxRetryAfter bounds server-supplied hints.
const maxRetryAfter = time.Hour

// ParseRetryAfter accepts delta-seconds or an HTTP date. Unparsable or past
// values yield zero; anything beyond maxRetryAfter is capped.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		switch {
		case !(secs > 0):
			return 0
		case secs >= maxRetryAfter.Seconds():
			return maxRetryAfter
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return min(d, maxRetryAfter)
		}
	}
	return 0
}

func snippet(b []byte) string {
	const n = 512
	if len(b) > n {
		b = b[:n]
	}
	return strings.TrimSpace(string(b))
}
