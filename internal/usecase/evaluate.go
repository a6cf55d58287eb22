// Package usecase contains the interview business logic: classification,
// answer evaluation, question generation, the round orchestrator and report
// compilation.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/pkg/textx"
)

const (
	maxListEntries = 5
	maxFeedback    = 1000
)

// EvaluatorService scores a single answer through the provider chain.
type EvaluatorService struct {
	AI domain.TextGenerator
}

// NewEvaluatorService constructs an EvaluatorService.
func NewEvaluatorService(gen domain.TextGenerator) EvaluatorService {
	return EvaluatorService{AI: gen}
}

// Evaluate returns the scored evaluation of answer. Provider failures are
// returned; unparsable provider output degrades to a zero evaluation.
func (s EvaluatorService) Evaluate(ctx context.Context, question, answer string, profile domain.ResumeProfile, lang domain.Language) (domain.Evaluation, error) {
	lg := observability.LoggerFromContext(ctx)
	inv, err := s.AI.Invoke(ctx, evaluationPrompt(question, answer, profile, lang), domain.InvokeOptions{
		JSONMode:    true,
		MaxTokens:   600,
		Temperature: 0.3,
		Operation:   "evaluate",
	})
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("op=usecase.Evaluate: %w", err)
	}
	ev, err := parseEvaluation(inv.Text)
	if err != nil {
		lg.Warn("evaluation output unusable, scoring zero",
			slog.Int("attempts", len(inv.Attempts)),
			slog.String("snippet", textx.TruncateRunes(inv.Text, 200, "...")),
			slog.Any("error", err))
		return domain.ZeroEvaluation(), nil
	}
	lg.Info("answer evaluated", slog.Int("score", ev.Score), slog.Int("attempts", len(inv.Attempts)))
	return ev, nil
}

type rawEvaluation struct {
	Score      json.RawMessage `json:"score"`
	Strengths  []string        `json:"strengths"`
	Weaknesses []string        `json:"weaknesses"`
	Feedback   string          `json:"feedback"`
}

func parseEvaluation(text string) (domain.Evaluation, error) {
	cleaned, ok := ai.CleanJSONResponse(text)
	if !ok {
		return domain.Evaluation{}, fmt.Errorf("%w: no JSON object", domain.ErrMalformedProviderOutput)
	}
	var raw rawEvaluation
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return domain.Evaluation{}, fmt.Errorf("%w: %v", domain.ErrMalformedProviderOutput, err)
	}
	score, err := parseScore(raw.Score)
	if err != nil {
		return domain.Evaluation{}, err
	}
	return domain.Evaluation{
		Score:      score,
		Strengths:  textx.CleanList(raw.Strengths, maxListEntries),
		Weaknesses: textx.CleanList(raw.Weaknesses, maxListEntries),
		Feedback:   textx.TruncateRunes(strings.TrimSpace(raw.Feedback), maxFeedback, "..."),
	}, nil
}

var errMissingScore = errors.New("missing score")

// parseScore accepts a JSON number or a numeric string and clamps to 0..100.
func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("%w: %w", domain.ErrMalformedProviderOutput, errMissingScore)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, fmt.Errorf("%w: score %s", domain.ErrMalformedProviderOutput, raw)
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "/100")
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: score %q", domain.ErrMalformedProviderOutput, s)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: non-finite score %v", domain.ErrMalformedProviderOutput, f)
	}
	return clampScore(f), nil
}

func clampScore(f float64) int {
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= domain.MaxScore:
		return domain.MaxScore
	}
	return int(math.Round(f))
}
