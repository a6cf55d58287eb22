package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
	assert.Equal(t, 8*time.Second, cfg.AIAttemptTimeout)
	assert.Equal(t, 90*time.Second, cfg.AIRequestTimeout)
	assert.Equal(t, "interview-reports", cfg.ReportTopic)
	assert.NotEmpty(t, cfg.GeminiModels)
}

func Test_Load_ParsesLists(t *testing.T) {
	t.Setenv("OPENROUTER_MODELS", "a:free,b:free")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("AI_ATTEMPT_TIMEOUT", "3s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:free", "b:free"}, cfg.OpenRouterModels)
	assert.Len(t, cfg.KafkaBrokers, 2)
	assert.Equal(t, 3*time.Second, cfg.AttemptTimeout())
}

func Test_Load_InvalidDuration(t *testing.T) {
	t.Setenv("AI_REQUEST_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=config.Load")
}

func TestConfig_AttemptTimeout_TestEnv(t *testing.T) {
	cfg := Config{AppEnv: "test", AIAttemptTimeout: time.Minute}
	assert.Equal(t, 500*time.Millisecond, cfg.AttemptTimeout())
	assert.Equal(t, 8*time.Second, Config{AppEnv: "prod"}.AttemptTimeout())
}

func TestConfig_GetRetryConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want RetryConfig
	}{
		{"defaults", Config{ClientRetryMaxRetries: 2, ClientRetryStep: time.Second}, RetryConfig{MaxRetries: 2, Step: time.Second}},
		{"clamped high", Config{ClientRetryMaxRetries: 9, ClientRetryStep: 2 * time.Second}, RetryConfig{MaxRetries: 2, Step: 2 * time.Second}},
		{"negative", Config{ClientRetryMaxRetries: -1}, RetryConfig{MaxRetries: 0, Step: time.Second}},
		{"test env", Config{AppEnv: "test", ClientRetryMaxRetries: 1, ClientRetryStep: time.Second}, RetryConfig{MaxRetries: 1, Step: 10 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.GetRetryConfig())
		})
	}
}

func TestLoadProviders_FromEnv(t *testing.T) {
	cfg := Config{
		GeminiAPIKey:            "g-key",
		GeminiModels:            []string{"gemini-2.5-flash", " ", "gemini-2.0-flash"},
		OpenRouterAPIKey:        "or-key",
		OpenRouterBaseURL:       "https://openrouter.example/api/v1",
		OpenRouterModels:        []string{"x/model:free"},
		OpenRouterFallbackModel: "openai/gpt-4o-mini",
		OpenRouterTitle:         "Mock",
	}
	pc, err := LoadProviders(cfg)
	require.NoError(t, err)
	require.Len(t, pc.Providers, 2)
	assert.Equal(t, "gemini", pc.Providers[0].ID)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash"}, pc.Providers[0].Models)
	assert.Equal(t, KindOpenAI, pc.Providers[1].Kind)
	assert.False(t, pc.Providers[1].DiscoverFreeModels)
	assert.Equal(t, "Mock", pc.Providers[1].Headers["X-Title"])
	require.NotNil(t, pc.Fallback)
	assert.Equal(t, []string{"openai/gpt-4o-mini"}, pc.Fallback.Models)
}

func TestLoadProviders_DiscoveryWhenNoFreeModels(t *testing.T) {
	pc, err := LoadProviders(Config{OpenRouterAPIKey: "k", OpenRouterBaseURL: "http://x"})
	require.NoError(t, err)
	require.Len(t, pc.Providers, 1)
	assert.True(t, pc.Providers[0].DiscoverFreeModels)
	assert.Nil(t, pc.Fallback)
}

func TestLoadProviders_NothingConfigured(t *testing.T) {
	_, err := LoadProviders(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no providers configured")
}

func TestLoadProviders_Stub(t *testing.T) {
	pc, err := LoadProviders(Config{AIStub: true, GeminiAPIKey: "ignored"})
	require.NoError(t, err)
	require.Len(t, pc.Providers, 1)
	assert.Equal(t, KindStub, pc.Providers[0].Kind)
}

func TestLoadProviders_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret-g")
	t.Setenv("TEST_OR_KEY", "secret-or")
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	content := `providers:
  - id: gemini
    kind: gemini
    credential: ${TEST_GEMINI_KEY}
    models: [gemini-2.5-flash, gemini-2.0-flash]
  - id: openrouter
    kind: openai
    base_url: https://openrouter.ai/api/v1
    credential: ${TEST_OR_KEY}
    headers:
      X-Title: interview
    models: ["deepseek/deepseek-chat:free"]
fallback:
  id: paid
  kind: openai
  base_url: https://openrouter.ai/api/v1
  credential: ${TEST_OR_KEY}
  models: [openai/gpt-4o-mini]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	pc, err := LoadProviders(Config{ProvidersFile: path})
	require.NoError(t, err)
	require.Len(t, pc.Providers, 2)
	assert.Equal(t, "secret-g", pc.Providers[0].Credential)
	assert.Equal(t, "secret-or", pc.Providers[1].Credential)
	assert.Equal(t, "interview", pc.Providers[1].Headers["X-Title"])
	require.NotNil(t, pc.Fallback)
	assert.Equal(t, "secret-or", pc.Fallback.Credential)
}

func TestLoadProviders_FileErrors(t *testing.T) {
	_, err := LoadProviders(Config{ProvidersFile: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers: [ {id: a, kind: grpc, models: [m]} ]"), 0o600))
	_, err = LoadProviders(Config{ProvidersFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestProvidersConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pc      ProvidersConfig
		wantErr string
	}{
		{"missing id", ProvidersConfig{Providers: []ProviderConfig{{Kind: KindGemini, Models: []string{"m"}}}}, "id is required"},
		{"duplicate", ProvidersConfig{Providers: []ProviderConfig{{ID: "a", Kind: KindGemini, Models: []string{"m"}}, {ID: "a", Kind: KindOpenAI, Models: []string{"m"}}}}, "duplicate"},
		{"no models", ProvidersConfig{Providers: []ProviderConfig{{ID: "a", Kind: KindGemini}}}, "at least one model"},
		{"fallback without model", ProvidersConfig{Fallback: &ProviderConfig{ID: "f", Kind: KindOpenAI, DiscoverFreeModels: true}}, "default model"},
		{"ok", ProvidersConfig{Providers: []ProviderConfig{{ID: "a", Kind: KindOpenAI, DiscoverFreeModels: true}}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pc.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
