package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider kinds understood by the adapter factory.
const (
	KindGemini = "gemini"
	KindOpenAI = "openai"
	KindStub   = "stub"
)

// ProviderConfig describes one text-generation provider and its ordered model list.
type ProviderConfig struct {
	ID         string   `yaml:"id"`
	Kind       string   `yaml:"kind"`
	Models     []string `yaml:"models"`
	Credential string   `yaml:"credential"`
	BaseURL    string   `yaml:"base_url"`
	// Headers are extra request headers (OpenAI-compatible providers only).
	Headers map[string]string `yaml:"headers"`
	// DiscoverFreeModels fills an empty Models list from the provider's /models
	// endpoint, keeping only zero-priced models.
	DiscoverFreeModels bool `yaml:"discover_free_models"`
}

// ProvidersConfig is the ordered provider topology consumed by the chain engine.
type ProvidersConfig struct {
	Providers []ProviderConfig `yaml:"providers"`
	Fallback  *ProviderConfig  `yaml:"fallback"`
}

// Validate checks the topology for missing identifiers and unknown kinds.
func (pc ProvidersConfig) Validate() error {
	if len(pc.Providers) == 0 && pc.Fallback == nil {
		return errors.New("no providers configured")
	}
	seen := make(map[string]struct{}, len(pc.Providers)+1)
	check := func(p ProviderConfig) error {
		if strings.TrimSpace(p.ID) == "" {
			return errors.New("provider id is required")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate provider id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		switch p.Kind {
		case KindGemini, KindOpenAI, KindStub:
		default:
			return fmt.Errorf("provider %q: unknown kind %q", p.ID, p.Kind)
		}
		if len(p.Models) == 0 && !p.DiscoverFreeModels {
			return fmt.Errorf("provider %q: at least one model is required", p.ID)
		}
		return nil
	}
	for _, p := range pc.Providers {
		if err := check(p); err != nil {
			return err
		}
	}
	if pc.Fallback != nil {
		if err := check(*pc.Fallback); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
		if len(pc.Fallback.Models) == 0 {
			return fmt.Errorf("fallback %q: a default model is required", pc.Fallback.ID)
		}
	}
	return nil
}

// LoadProviders builds the provider topology. A PROVIDERS_FILE takes
// precedence; otherwise the topology is derived from the GEMINI_* and
// OPENROUTER_* variables. AI_STUB replaces everything with a single stub.
func LoadProviders(cfg Config) (ProvidersConfig, error) {
	if cfg.AIStub {
		return ProvidersConfig{Providers: []ProviderConfig{{ID: "stub", Kind: KindStub, Models: []string{"stub-1"}}}}, nil
	}
	var pc ProvidersConfig
	if cfg.ProvidersFile != "" {
		var err error
		pc, err = loadProvidersFile(cfg.ProvidersFile)
		if err != nil {
			return ProvidersConfig{}, fmt.Errorf("op=config.LoadProviders: %w", err)
		}
	} else {
		pc = providersFromEnv(cfg)
	}
	if err := pc.Validate(); err != nil {
		return ProvidersConfig{}, fmt.Errorf("op=config.LoadProviders: %w", err)
	}
	return pc, nil
}

func loadProvidersFile(path string) (ProvidersConfig, error) {
	// #nosec G304 -- operator supplied configuration path
	content, err := os.ReadFile(path)
	if err != nil {
		return ProvidersConfig{}, fmt.Errorf("read providers file: %w", err)
	}
	var pc ProvidersConfig
	if err := yaml.Unmarshal(content, &pc); err != nil {
		return ProvidersConfig{}, fmt.Errorf("parse providers file: %w", err)
	}
	for i := range pc.Providers {
		expandProvider(&pc.Providers[i])
	}
	if pc.Fallback != nil {
		expandProvider(pc.Fallback)
	}
	return pc, nil
}

// expandProvider resolves ${ENV} references so secrets stay out of the file.
func expandProvider(p *ProviderConfig) {
	p.Credential = os.ExpandEnv(p.Credential)
	p.BaseURL = os.ExpandEnv(p.BaseURL)
	for k, v := range p.Headers {
		p.Headers[k] = os.ExpandEnv(v)
	}
}

func providersFromEnv(cfg Config) ProvidersConfig {
	var pc ProvidersConfig
	if cfg.GeminiAPIKey != "" && len(cleanList(cfg.GeminiModels)) > 0 {
		pc.Providers = append(pc.Providers, ProviderConfig{
			ID:         "gemini",
			Kind:       KindGemini,
			Models:     cleanList(cfg.GeminiModels),
			Credential: cfg.GeminiAPIKey,
		})
	}
	if cfg.OpenRouterAPIKey == "" {
		return pc
	}
	headers := map[string]string{}
	if cfg.OpenRouterReferer != "" {
		headers["HTTP-Referer"] = cfg.OpenRouterReferer
	}
	if cfg.OpenRouterTitle != "" {
		headers["X-Title"] = cfg.OpenRouterTitle
	}
	free := cleanList(cfg.OpenRouterModels)
	pc.Providers = append(pc.Providers, ProviderConfig{
		ID:                 "openrouter",
		Kind:               KindOpenAI,
		Models:             free,
		Credential:         cfg.OpenRouterAPIKey,
		BaseURL:            cfg.OpenRouterBaseURL,
		Headers:            headers,
		DiscoverFreeModels: len(free) == 0,
	})
	if fb := strings.TrimSpace(cfg.OpenRouterFallbackModel); fb != "" {
		pc.Fallback = &ProviderConfig{
			ID:         "openrouter-paid",
			Kind:       KindOpenAI,
			Models:     []string{fb},
			Credential: cfg.OpenRouterAPIKey,
			BaseURL:    cfg.OpenRouterBaseURL,
			Headers:    headers,
		}
	}
	return pc
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
