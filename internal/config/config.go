// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`
	// ProvidersFile points to a YAML provider topology. When empty the topology
	// is derived from the GEMINI_* and OPENROUTER_* variables below.
	ProvidersFile string `env:"PROVIDERS_FILE"`

	GeminiAPIKey string   `env:"GEMINI_API_KEY"`
	GeminiModels []string `env:"GEMINI_MODELS" envSeparator:"," envDefault:"gemini-2.5-flash,gemini-2.0-flash,gemini-2.5-flash-lite"`

	OpenRouterAPIKey  string   `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string   `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterModels  []string `env:"OPENROUTER_MODELS" envSeparator:","`
	// OpenRouterFallbackModel is the paid model used as the single fallback call.
	OpenRouterFallbackModel string `env:"OPENROUTER_FALLBACK_MODEL" envDefault:"openai/gpt-4o-mini"`
	OpenRouterReferer       string `env:"OPENROUTER_REFERER"`
	OpenRouterTitle         string `env:"OPENROUTER_TITLE" envDefault:"AI Mock Interview"`
	// FreeModelsRefresh: how often to refresh the list of available free models
	FreeModelsRefresh time.Duration `env:"FREE_MODELS_REFRESH" envDefault:"1h"`

	// AIStub swaps every provider for the deterministic offline stub.
	AIStub           bool          `env:"AI_STUB" envDefault:"false"`
	AIAttemptTimeout time.Duration `env:"AI_ATTEMPT_TIMEOUT" envDefault:"8s"`
	AIRequestTimeout time.Duration `env:"AI_REQUEST_TIMEOUT" envDefault:"90s"`
	AIModelCooldown  time.Duration `env:"AI_MODEL_COOLDOWN" envDefault:"20s"`

	RedisURL                string   `env:"REDIS_URL"`
	ProviderRateLimitPerMin int      `env:"PROVIDER_RATE_LIMIT_PER_MIN" envDefault:"0"`
	DBURL                   string   `env:"DB_URL"`
	KafkaBrokers            []string `env:"KAFKA_BROKERS" envSeparator:","`
	ReportTopic             string   `env:"REPORT_TOPIC" envDefault:"interview-reports"`
	// TikaURL enables PDF and DOCX resume uploads when set.
	TikaURL string `env:"TIKA_URL"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-mock-interview"`

	MaxResumeKB           int64         `env:"MAX_RESUME_KB" envDefault:"256"`
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	// Client retry layer (interviewctl and pkg/interviewclient)
	ClientRetryMaxRetries int           `env:"CLIENT_RETRY_MAX_RETRIES" envDefault:"2"`
	ClientRetryStep       time.Duration `env:"CLIENT_RETRY_STEP" envDefault:"1s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// AttemptTimeout returns the per-attempt provider timeout.
// Test environments use a short timeout so hung fakes fail fast.
func (c Config) AttemptTimeout() time.Duration {
	if c.IsTest() {
		return 500 * time.Millisecond
	}
	if c.AIAttemptTimeout <= 0 {
		return 8 * time.Second
	}
	return c.AIAttemptTimeout
}
