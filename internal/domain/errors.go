package domain

import "errors"

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrInternal        = errors.New("internal error")

	// ErrProviderRateLimited is retryable by the end user at a later time.
	ErrProviderRateLimited = errors.New("provider rate limited")
	// ErrProviderFatal aborts the current turn.
	ErrProviderFatal = errors.New("provider fatal error")

	ErrAllProvidersExhausted   = errors.New("all providers exhausted")
	ErrUpstreamTimeout         = errors.New("upstream timeout")
	ErrMalformedProviderOutput = errors.New("malformed provider output")
	ErrPreconditionViolation   = errors.New("precondition violation")
)
