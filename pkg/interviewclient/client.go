// Package interviewclient is a Go client for the mock interview HTTP API.
//
// It owns the caller-side retry policy: transport failures and gateway
// statuses that never reached the service are retried a bounded number of
// times with linearly increasing delay. Anything the service answered with an
// error code, provider rate limits included, is returned immediately so the
// end user can decide what to do. This layer is separate from the server's
// provider fallback chain.
package interviewclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

// Error codes returned by the API that influence retrying.
const (
	CodeProviderRateLimited = "PROVIDER_RATE_LIMITED"
	CodeProviderFatal       = "PROVIDER_FATAL"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status    int
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d %s: %s", e.Status, e.Code, e.Message)
}

// IsRateLimited reports whether err is a provider rate-limit response. The
// caller may resubmit the same turn later.
func IsRateLimited(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && (ae.Code == CodeProviderRateLimited || ae.Status == http.StatusTooManyRequests)
}

// Client calls the interview API.
type Client struct {
	BaseURL    string
	HTTP       *http.Client
	MaxRetries int
	Step       time.Duration
	Logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }

// WithRetry sets the number of additional attempts and the linear step.
func WithRetry(maxRetries int, step time.Duration) Option {
	return func(c *Client) {
		c.MaxRetries = maxRetries
		c.Step = step
	}
}

// WithLogger sets the logger used for retry messages.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.Logger = l } }

// New returns a client with two retries one second apart (1s, then 2s).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTP:       &http.Client{Timeout: 120 * time.Second},
		MaxRetries: 2,
		Step:       time.Second,
		Logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StartResponse is the first question of an interview.
type StartResponse struct {
	RoleCategory  domain.RoleCategory `json:"roleCategory"`
	TopicBriefing string              `json:"topicBriefing"`
	Question      domain.Question     `json:"question"`
}

// TurnRequest submits one answer.
type TurnRequest struct {
	QuestionID    string               `json:"questionId"`
	Question      string               `json:"question"`
	Answer        string               `json:"answer"`
	DurationMs    int                  `json:"durationMs"`
	ResumeProfile domain.ResumeProfile `json:"resumeProfile"`
	QAHistory     []domain.QARecord    `json:"qaHistory"`
	CurrentRound  int                  `json:"currentRound"`
	QuestionIndex int                  `json:"questionIndex"`
	Language      domain.Language      `json:"language"`
}

// TurnResponse is the server's decision after one answer.
type TurnResponse struct {
	Evaluation         domain.Evaluation `json:"evaluation"`
	NextQuestion       *domain.Question  `json:"nextQuestion"`
	ShouldAdvanceRound bool              `json:"shouldAdvanceRound"`
	ShouldEndInterview bool              `json:"shouldEndInterview"`
	NextRound          int               `json:"nextRound"`
	QAHistory          []domain.QARecord `json:"qaHistory"`
}

// FinalizeRequest asks for the final report.
type FinalizeRequest struct {
	Language      domain.Language      `json:"language"`
	InterviewType string               `json:"interviewType,omitempty"`
	ResumeProfile domain.ResumeProfile `json:"resumeProfile"`
	QAHistory     []domain.QARecord    `json:"qaHistory"`
	DurationSec   int                  `json:"durationSec"`
}

// Start begins an interview.
func (c *Client) Start(ctx context.Context, profile domain.ResumeProfile, lang domain.Language) (StartResponse, error) {
	var out StartResponse
	err := c.do(ctx, http.MethodPost, "/v1/interview/start", map[string]any{"language": lang, "resumeProfile": profile}, &out)
	return out, err
}

// SubmitTurn submits an answer.
func (c *Client) SubmitTurn(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	var out TurnResponse
	err := c.do(ctx, http.MethodPost, "/v1/interview/turn", req, &out)
	return out, err
}

// Finalize compiles the final report.
func (c *Client) Finalize(ctx context.Context, req FinalizeRequest) (domain.FinalReport, error) {
	var out domain.FinalReport
	err := c.do(ctx, http.MethodPost, "/v1/interview/finalize", req, &out)
	return out, err
}

// Classify runs the role classifier.
func (c *Client) Classify(ctx context.Context, profile domain.ResumeProfile, lang domain.Language) (domain.Classification, error) {
	var out domain.Classification
	err := c.do(ctx, http.MethodPost, "/v1/roles/classify", map[string]any{"language": lang, "resumeProfile": profile}, &out)
	return out, err
}

// AnalyzeResume extracts a profile from plain resume text.
func (c *Client) AnalyzeResume(ctx context.Context, text string, lang domain.Language) (domain.ResumeProfile, error) {
	var out domain.ResumeProfile
	err := c.do(ctx, http.MethodPost, "/v1/resume/analyze", map[string]any{"language": lang, "text": text}, &out)
	return out, err
}

// GetReport loads a stored report.
func (c *Client) GetReport(ctx context.Context, id string) (domain.FinalReport, error) {
	var out domain.FinalReport
	err := c.do(ctx, http.MethodGet, "/v1/reports/"+id, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("op=interviewclient.%s: marshal: %w", path, err))
		}
		body = b
	}
	attempt := 0
	op := func() error {
		attempt++
		err := c.once(ctx, method, path, body, out)
		if err != nil && shouldRetry(ctx, err) {
			c.Logger.Warn("request failed, retrying",
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: c.Step}, uint64(maxRetries)), ctx)
	return backoff.Retry(op, bo)
}

func (c *Client) once(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ae := &APIError{Status: resp.StatusCode}
		var env struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(data, &env) == nil && env.Error != nil {
			ae.Code, ae.Message, ae.Retryable = env.Error.Code, env.Error.Message, env.Error.Retryable
		} else {
			ae.Message = strings.TrimSpace(string(data))
		}
		return ae
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// shouldRetry retries transport failures and 502/503/504 responses without an
// API error code, which come from proxies in front of the service. A coded
// response means the provider chain already ran; replaying it would repeat
// the whole chain.
func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return false
	}
	var ae *APIError
	if !errors.As(err, &ae) {
		return true
	}
	if ae.Code != "" {
		return false
	}
	switch ae.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
