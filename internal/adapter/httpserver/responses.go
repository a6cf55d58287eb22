// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the interview turn loop, report compilation, resume analysis and
// role classification as a JSON API. Handlers translate requests into usecase
// calls and map the domain error taxonomy onto HTTP status codes.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details"`
	Retryable bool        `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var friendlyMessages = map[string]map[domain.Language]string{
	"PROVIDER_RATE_LIMITED": {
		domain.LangEN: "The AI interviewer is busy right now. Please wait a moment and try again.",
		domain.LangZH: "AI 面试官当前繁忙，请稍等片刻后重试。",
	},
	"PROVIDER_FATAL": {
		domain.LangEN: "The AI interviewer could not process this answer. Please try again.",
		domain.LangZH: "AI 面试官暂时无法处理这条回答，请重试。",
	},
	"SCHEMA_INVALID": {
		domain.LangEN: "The AI returned an unexpected result. Please try again.",
		domain.LangZH: "AI 返回的结果格式异常，请重试。",
	},
	"INTERNAL": {
		domain.LangEN: "Something went wrong. Please try again.",
		domain.LangZH: "服务出现异常，请重试。",
	},
}

func friendly(code string, lang domain.Language) string {
	m := friendlyMessages[code]
	if s, ok := m[lang]; ok {
		return s
	}
	return m[domain.LangEN]
}

// classifyError maps err to status, code and whether the end user may retry.
func classifyError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT", false
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", false
	case errors.Is(err, domain.ErrPreconditionViolation):
		return http.StatusUnprocessableEntity, "PRECONDITION_VIOLATION", false
	case errors.Is(err, domain.ErrProviderRateLimited):
		return http.StatusTooManyRequests, "PROVIDER_RATE_LIMITED", true
	// Exhaustion that was not rate-limit driven, including an expired
	// request deadline, aborts the turn like any other provider failure.
	case errors.Is(err, domain.ErrProviderFatal),
		errors.Is(err, domain.ErrAllProvidersExhausted),
		errors.Is(err, domain.ErrUpstreamTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, "PROVIDER_FATAL", false
	case errors.Is(err, domain.ErrSchemaInvalid):
		return http.StatusServiceUnavailable, "SCHEMA_INVALID", true
	default:
		return http.StatusInternalServerError, "INTERNAL", false
	}
}

// writeError writes the error envelope. Client errors echo err's message;
// upstream and internal failures get a localized message instead.
func writeError(w http.ResponseWriter, r *http.Request, lang domain.Language, err error, details interface{}) {
	status, code, retryable := classifyError(err)
	msg := err.Error()
	if status >= 500 || status == http.StatusTooManyRequests {
		msg = friendly(code, lang)
		LoggerFrom(r).Warn("request failed",
			slog.String("code", code),
			slog.Int("status", status),
			slog.Any("error", err))
	}
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: msg, Details: details, Retryable: retryable}})
}
