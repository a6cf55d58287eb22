package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai/openaicompat"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-mock-interview/internal/config"
)

// NewProvider builds the adapter for one configured provider.
func NewProvider(ctx context.Context, cfg config.Config, pc config.ProviderConfig) (ai.Provider, error) {
	switch pc.Kind {
	case config.KindGemini:
		p, err := gemini.New(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("op=app.NewProvider: provider %q: %w", pc.ID, err)
		}
		return p, nil
	case config.KindOpenAI:
		var opts []openaicompat.Option
		if pc.DiscoverFreeModels {
			hc := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
			opts = append(opts, openaicompat.WithCatalog(openaicompat.NewCatalog(hc, pc.BaseURL, pc.Credential, cfg.FreeModelsRefresh)))
		}
		return openaicompat.New(pc, opts...), nil
	case config.KindStub:
		return stub.New(pc.ID), nil
	default:
		return nil, fmt.Errorf("op=app.NewProvider: provider %q: unknown kind %q", pc.ID, pc.Kind)
	}
}

// BuildEngine turns the provider topology into a chain engine. limiter may be
// nil. The returned cooldown cache must be stopped on shutdown.
func BuildEngine(ctx context.Context, cfg config.Config, pc config.ProvidersConfig, limiter ai.Limiter) (*ai.Engine, *ai.CooldownCache, error) {
	routes := make([]ai.Route, 0, len(pc.Providers))
	for _, p := range pc.Providers {
		prov, err := NewProvider(ctx, cfg, p)
		if err != nil {
			return nil, nil, err
		}
		routes = append(routes, ai.Route{Provider: prov, Models: p.Models})
		slog.Info("provider configured",
			slog.String("provider", p.ID),
			slog.String("kind", p.Kind),
			slog.Int("models", len(p.Models)),
			slog.Bool("discover_free_models", p.DiscoverFreeModels))
	}
	var fallback *ai.Route
	if pc.Fallback != nil {
		prov, err := NewProvider(ctx, cfg, *pc.Fallback)
		if err != nil {
			return nil, nil, err
		}
		fallback = &ai.Route{Provider: prov, Models: pc.Fallback.Models}
		slog.Info("fallback configured", slog.String("provider", pc.Fallback.ID), slog.String("model", pc.Fallback.Models[0]))
	}

	cooldown := ai.NewCooldownCache(cfg.AIModelCooldown)
	opts := []ai.Option{
		ai.WithCooldown(cooldown),
		ai.WithTokenCounter(tokencount.NewCounter()),
		ai.WithAttemptTimeout(cfg.AttemptTimeout()),
	}
	if limiter != nil {
		opts = append(opts, ai.WithLimiter(limiter))
	}
	return ai.NewEngine(routes, fallback, opts...), cooldown, nil
}
