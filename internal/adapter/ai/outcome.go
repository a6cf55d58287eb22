// Package ai implements the provider chain engine that every text-generation
// call in the service goes through.
package ai

import (
	"context"
	"time"
)

// Request is the provider-neutral payload for a single model call.
type Request struct {
	Prompt      string
	JSONMode    bool
	MaxTokens   int
	Temperature float32
}

// Provider is one text-generation backend. Adapters translate their native
// failures into an Outcome so the chain never inspects error strings.
type Provider interface {
	ID() string
	Generate(ctx context.Context, model string, req Request) Outcome
}

// OutcomeKind discriminates the Outcome variants.
type OutcomeKind int

const (
	KindSuccess OutcomeKind = iota
	KindRateLimited
	KindFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rateLimited"
	default:
		return "fatal"
	}
}

// Outcome is the result of one provider attempt:
// Success(text) | RateLimited(err, retryAfter) | Fatal(err).
type Outcome struct {
	Kind       OutcomeKind
	Text       string
	Err        error
	RetryAfter time.Duration
}

// Success builds a successful outcome.
func Success(text string) Outcome { return Outcome{Kind: KindSuccess, Text: text} }

// RateLimited builds a transient outcome. retryAfter may be zero when the
// provider did not say.
func RateLimited(err error, retryAfter time.Duration) Outcome {
	return Outcome{Kind: KindRateLimited, Err: err, RetryAfter: retryAfter}
}

// Fatal builds an outcome that stops the chain.
func Fatal(err error) Outcome { return Outcome{Kind: KindFatal, Err: err} }
