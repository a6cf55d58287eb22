package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

var errCoolingDown = errors.New("model cooling down after rate limit")

// errTimedOut is the exhaustion cause when attempts or the caller's deadline
// ran out. It is a fatal failure for the turn that still reports the timeout.
var errTimedOut = fmt.Errorf("%w: %w", domain.ErrProviderFatal, domain.ErrUpstreamTimeout)

// Limiter is a distributed token bucket keyed by provider ID.
type Limiter interface {
	Allow(ctx context.Context, key string, cost int64) (allowed bool, retryAfter time.Duration, err error)
}

// TokenCounter estimates prompt sizes for metrics.
type TokenCounter interface {
	EstimatePromptTokens(prompt, model string) int
}

// ModelLister is implemented by providers that can discover their models at
// runtime when none are configured.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Route binds a provider to its ordered model list.
type Route struct {
	Provider Provider
	Models   []string
}

// ExhaustedError is returned when no attempt succeeded and none was fatal.
// It matches domain.ErrAllProvidersExhausted and its cause, which is
// domain.ErrProviderRateLimited only when every attempt was rate limited and
// domain.ErrProviderFatal otherwise. Timeouts and an expired caller deadline
// additionally match domain.ErrUpstreamTimeout.
type ExhaustedError struct {
	Attempts []domain.Attempt
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", domain.ErrAllProvidersExhausted, len(e.Attempts), e.Cause)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{domain.ErrAllProvidersExhausted, e.Cause}
}

// Engine walks the configured (provider, model) pairs until one succeeds.
// It implements domain.TextGenerator and is safe for concurrent use; the only
// shared state is the cooldown cache and the limiter.
type Engine struct {
	routes         []Route
	fallback       *Route
	cooldown       *CooldownCache
	limiter        Limiter
	tokens         TokenCounter
	attemptTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithCooldown skips models that recently answered with a rate limit.
func WithCooldown(c *CooldownCache) Option { return func(e *Engine) { e.cooldown = c } }

// WithLimiter gates every primary attempt on a per-provider token bucket.
func WithLimiter(l Limiter) Option { return func(e *Engine) { e.limiter = l } }

// WithTokenCounter enables prompt token estimates in metrics and logs.
func WithTokenCounter(tc TokenCounter) Option { return func(e *Engine) { e.tokens = tc } }

// WithAttemptTimeout bounds each individual provider call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.attemptTimeout = d
		}
	}
}

// NewEngine builds an engine over routes in priority order. fallback may be
// nil; when set, its first model is called once after every primary attempt
// came back transient.
func NewEngine(routes []Route, fallback *Route, opts ...Option) *Engine {
	e := &Engine{
		routes:         routes,
		fallback:       fallback,
		attemptTimeout: 8 * time.Second,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

var _ domain.TextGenerator = (*Engine)(nil)

// Invoke sends prompt through the chain and returns the first successful text
// together with the log of every attempt made.
func (e *Engine) Invoke(ctx context.Context, prompt string, opts domain.InvokeOptions) (domain.Invocation, error) {
	tracer := otel.Tracer("ai.engine")
	ctx, span := tracer.Start(ctx, "ai.Invoke")
	defer span.End()
	span.SetAttributes(attribute.String("ai.operation", opts.Operation), attribute.Bool("ai.json_mode", opts.JSONMode))

	lg := observability.LoggerFromContext(ctx).With(slog.String("op", opts.Operation))
	req := Request{Prompt: prompt, JSONMode: opts.JSONMode, MaxTokens: opts.MaxTokens, Temperature: opts.Temperature}
	promptTokens := e.estimateTokens(prompt)

	var attempts []domain.Attempt
	finish := func(text string, err error) (domain.Invocation, error) {
		result := "success"
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrProviderRateLimited):
			result = "rate_limited"
		case errors.Is(err, domain.ErrUpstreamTimeout):
			result = "timeout"
		default:
			result = "fatal"
		}
		observability.ObserveInvocation(opts.Operation, result, promptTokens)
		span.SetAttributes(attribute.Int("ai.attempts", len(attempts)), attribute.String("ai.result", result))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
			lg.Warn("provider chain failed",
				slog.String("result", result),
				slog.Int("attempts", len(attempts)),
				slog.Any("error", err))
		}
		return domain.Invocation{Text: text, Attempts: attempts}, err
	}

	for _, r := range e.routes {
		for _, model := range e.modelsFor(ctx, r) {
			if ctx.Err() != nil {
				return finish("", &ExhaustedError{Attempts: attempts, Cause: errTimedOut})
			}
			a, out := e.attempt(ctx, r.Provider, model, req, true)
			attempts = append(attempts, a)
			switch a.Outcome {
			case domain.OutcomeSuccess:
				return finish(out.Text, nil)
			case domain.OutcomeOtherError:
				return finish("", fmt.Errorf("op=ai.Invoke provider=%s model=%s: %w: %w", a.ProviderID, a.ModelID, domain.ErrProviderFatal, out.Err))
			}
		}
	}

	if ctx.Err() != nil {
		return finish("", &ExhaustedError{Attempts: attempts, Cause: errTimedOut})
	}

	if e.fallback != nil && len(e.fallback.Models) > 0 {
		model := e.fallback.Models[0]
		lg.Info("primary providers exhausted; calling fallback",
			slog.String("provider", e.fallback.Provider.ID()),
			slog.String("model", model),
			slog.Int("attempts", len(attempts)))
		a, out := e.attempt(ctx, e.fallback.Provider, model, req, false)
		attempts = append(attempts, a)
		switch a.Outcome {
		case domain.OutcomeSuccess:
			return finish(out.Text, nil)
		case domain.OutcomeOtherError:
			return finish("", fmt.Errorf("op=ai.Invoke provider=%s model=%s: %w: %w", a.ProviderID, a.ModelID, domain.ErrProviderFatal, out.Err))
		}
	}

	return finish("", &ExhaustedError{Attempts: attempts, Cause: exhaustionCause(attempts)})
}

// exhaustionCause is rate limited only when every attempt was rate limited.
func exhaustionCause(attempts []domain.Attempt) error {
	if len(attempts) == 0 {
		return domain.ErrProviderFatal
	}
	allRateLimited := true
	for _, a := range attempts {
		if a.Outcome == domain.OutcomeTimeout {
			return errTimedOut
		}
		if a.Outcome != domain.OutcomeRateLimited {
			allRateLimited = false
		}
	}
	if allRateLimited {
		return domain.ErrProviderRateLimited
	}
	return domain.ErrProviderFatal
}

// attempt performs one provider call. gated attempts consult the cooldown
// cache and limiter first and are recorded as skipped rate limits when denied.
func (e *Engine) attempt(ctx context.Context, p Provider, model string, req Request, gated bool) (domain.Attempt, Outcome) {
	pid := p.ID()
	lg := observability.LoggerFromContext(ctx)
	a := domain.Attempt{ProviderID: pid, ModelID: model}

	if gated {
		if skip, out := e.gate(ctx, pid, model); skip {
			a.Outcome = domain.OutcomeRateLimited
			a.Skipped = true
			observability.ObserveAttempt(pid, model, string(a.Outcome), 0)
			lg.Debug("provider attempt skipped",
				slog.String("provider", pid),
				slog.String("model", model),
				slog.Duration("retry_after", out.RetryAfter),
				slog.Any("reason", out.Err))
			return a, out
		}
	}

	ctx, span := otel.Tracer("ai.engine").Start(ctx, "ai.attempt")
	defer span.End()
	span.SetAttributes(attribute.String("ai.provider", pid), attribute.String("ai.model", model))

	actx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan Outcome, 1)
	go func() { done <- p.Generate(actx, model, req) }()

	var out Outcome
	select {
	case out = <-done:
	case <-actx.Done():
		out = Fatal(actx.Err())
	}
	a.Latency = time.Since(start)
	a.LatencyMs = a.Latency.Milliseconds()

	switch out.Kind {
	case KindSuccess:
		a.Outcome = domain.OutcomeSuccess
		if e.cooldown != nil {
			e.cooldown.RecordSuccess(pid, model)
		}
	case KindRateLimited:
		a.Outcome = domain.OutcomeRateLimited
		if e.cooldown != nil {
			e.cooldown.RecordRateLimit(pid, model, out.RetryAfter)
		}
	default:
		if actx.Err() != nil || errors.Is(out.Err, context.DeadlineExceeded) {
			// A hung model is transient; the caller's own deadline is checked
			// by the walker before the next attempt.
			a.Outcome = domain.OutcomeTimeout
		} else {
			a.Outcome = domain.OutcomeOtherError
		}
	}

	observability.ObserveAttempt(pid, model, string(a.Outcome), a.Latency)
	span.SetAttributes(attribute.String("ai.outcome", string(a.Outcome)))
	if a.Outcome != domain.OutcomeSuccess {
		span.SetStatus(codes.Error, string(a.Outcome))
	}
	lg.Info("provider attempt",
		slog.String("provider", pid),
		slog.String("model", model),
		slog.String("outcome", string(a.Outcome)),
		slog.Int64("latency_ms", a.LatencyMs),
		slog.Any("error", out.Err))
	return a, out
}

func (e *Engine) gate(ctx context.Context, providerID, model string) (bool, Outcome) {
	if e.cooldown != nil {
		if d := e.cooldown.Remaining(providerID, model); d > 0 {
			return true, RateLimited(errCoolingDown, d)
		}
	}
	if e.limiter != nil {
		allowed, retryAfter, err := e.limiter.Allow(ctx, providerID, 1)
		if err != nil {
			// fail open
			observability.LoggerFromContext(ctx).Warn("provider limiter error", slog.String("provider", providerID), slog.Any("error", err))
			return false, Outcome{}
		}
		if !allowed {
			return true, RateLimited(fmt.Errorf("local token bucket empty for %s", providerID), retryAfter)
		}
	}
	return false, Outcome{}
}

func (e *Engine) modelsFor(ctx context.Context, r Route) []string {
	if len(r.Models) > 0 {
		return r.Models
	}
	lister, ok := r.Provider.(ModelLister)
	if !ok {
		return nil
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("model discovery failed",
			slog.String("provider", r.Provider.ID()),
			slog.Any("error", err))
		return nil
	}
	return models
}

func (e *Engine) estimateTokens(prompt string) int {
	if e.tokens == nil {
		return 0
	}
	model := ""
	if len(e.routes) > 0 && len(e.routes[0].Models) > 0 {
		model = e.routes[0].Models[0]
	}
	return e.tokens.EstimatePromptTokens(prompt, model)
}
