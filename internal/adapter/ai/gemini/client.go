// Package gemini implements an ai.Provider backed by the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/config"
)

// contentGenerator is the subset of *genai.Models the provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider calls the Gemini API.
type Provider struct {
	id     string
	models contentGenerator
}

var _ ai.Provider = (*Provider)(nil)

// New creates a Gemini provider using the Gemini API backend.
func New(ctx context.Context, pc config.ProviderConfig) (*Provider, error) {
	apiKey := strings.TrimSpace(pc.Credential)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Provider{id: pc.ID, models: client.Models}, nil
}

// ID returns the configured provider ID.
func (p *Provider) ID() string { return p.id }

// Generate sends one prompt to model.
func (p *Provider) Generate(ctx context.Context, model string, req ai.Request) ai.Outcome {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := p.models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		out := classifyError(err)
		if out.Kind == ai.KindRateLimited {
			observability.LoggerFromContext(ctx).Warn("ai provider rate limited",
				slog.String("provider", p.id),
				slog.String("model", model),
				slog.Duration("retry_after", out.RetryAfter))
		}
		return out
	}
	return ai.Success(responseText(resp))
}

// classifyError maps a GenAI error to an outcome. Quota and overload errors
// are rate limits; everything else, including context errors, is fatal.
func classifyError(err error) ai.Outcome {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests,
			apiErr.Code == http.StatusServiceUnavailable,
			apiErr.Status == "RESOURCE_EXHAUSTED",
			apiErr.Status == "UNAVAILABLE":
			return ai.RateLimited(fmt.Errorf("gemini %d %s: %s", apiErr.Code, apiErr.Status, apiErr.Message), retryDelay(apiErr))
		}
		return ai.Fatal(fmt.Errorf("gemini %d %s: %s", apiErr.Code, apiErr.Status, apiErr.Message))
	}
	return ai.Fatal(fmt.Errorf("generate content: %w", err))
}

// retryDelay reads google.rpc.RetryInfo from the error details.
func retryDelay(apiErr genai.APIError) time.Duration {
	for _, d := range apiErr.Details {
		t, _ := d["@type"].(string)
		if !strings.HasSuffix(t, "RetryInfo") {
			continue
		}
		if s, ok := d["retryDelay"].(string); ok {
			if dur, err := time.ParseDuration(s); err == nil && dur > 0 {
				return dur
			}
		}
	}
	return 0
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part == nil || part.Thought || part.Text == "" {
				continue
			}
			b.WriteString(part.Text)
		}
		// first candidate only
		break
	}
	return strings.TrimSpace(b.String())
}
