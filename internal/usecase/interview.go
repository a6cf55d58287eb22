package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

// TurnInput is the complete caller-owned session state plus one answer.
type TurnInput struct {
	QuestionID   string
	Question     string
	Answer       string
	DurationMs   int
	Profile      domain.ResumeProfile
	History      []domain.QARecord
	CurrentRound int
	Language     domain.Language
}

// TurnResult is the orchestrator's decision for one submitted answer.
// History is a fresh slice including the new record.
type TurnResult struct {
	Evaluation         domain.Evaluation `json:"evaluation"`
	NextQuestion       *domain.Question  `json:"nextQuestion"`
	ShouldAdvanceRound bool              `json:"shouldAdvanceRound"`
	ShouldEndInterview bool              `json:"shouldEndInterview"`
	NextRound          int               `json:"nextRound"`
	History            []domain.QARecord `json:"qaHistory"`
}

// StartResult is the opening of a new interview.
type StartResult struct {
	Classification domain.Classification `json:"classification"`
	Question       domain.Question       `json:"question"`
}

// InterviewService is the round orchestrator. It holds no session state;
// every decision is derived from the input alone.
type InterviewService struct {
	Evaluator EvaluatorService
	Questions QuestionService
}

// NewInterviewService constructs an InterviewService.
func NewInterviewService(ev EvaluatorService, qs QuestionService) InterviewService {
	return InterviewService{Evaluator: ev, Questions: qs}
}

// StartInterview classifies the resume and generates the first question.
func (s InterviewService) StartInterview(ctx context.Context, profile domain.ResumeProfile, lang domain.Language) (StartResult, error) {
	if profile.IsEmpty() {
		return StartResult{}, fmt.Errorf("%w: resume profile has no skills or projects", domain.ErrInvalidArgument)
	}
	cls := Classify(profile, lang)
	q, err := s.Questions.GenerateNext(ctx, QuestionInput{
		Profile:        profile,
		Classification: cls,
		TargetRound:    1,
		Language:       lang,
	})
	if err != nil {
		return StartResult{}, fmt.Errorf("op=usecase.StartInterview: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("interview started", slog.String("role", string(cls.Role)))
	return StartResult{Classification: cls, Question: q}, nil
}

// SubmitTurn evaluates one answer and decides whether the round advances,
// the interview ends, or another question follows.
func (s InterviewService) SubmitTurn(ctx context.Context, in TurnInput) (TurnResult, error) {
	if err := validateTurn(in); err != nil {
		return TurnResult{}, err
	}
	lg := observability.LoggerFromContext(ctx).With(slog.Int("round", in.CurrentRound))

	ev, err := s.Evaluator.Evaluate(ctx, in.Question, in.Answer, in.Profile, in.Language)
	if err != nil {
		return TurnResult{}, fmt.Errorf("op=usecase.SubmitTurn: %w", err)
	}

	history := make([]domain.QARecord, 0, len(in.History)+1)
	history = append(history, in.History...)
	history = append(history, domain.QARecord{
		Question:   in.Question,
		Answer:     in.Answer,
		DurationMs: in.DurationMs,
		Round:      in.CurrentRound,
		Score:      ev.Score,
	})

	advance := answersInRound(history, in.CurrentRound) >= domain.QuestionsPerRound
	nextRound := in.CurrentRound
	if advance {
		nextRound++
	}
	end := in.CurrentRound == domain.TotalRounds && advance

	res := TurnResult{
		Evaluation:         ev,
		ShouldAdvanceRound: advance,
		ShouldEndInterview: end,
		NextRound:          nextRound,
		History:            history,
	}
	observability.ObserveTurn(in.CurrentRound, ev.Score)

	if end {
		lg.Info("interview ended", slog.Int("answers", len(history)))
		return res, nil
	}

	q, err := s.Questions.GenerateNext(ctx, QuestionInput{
		Profile:        in.Profile,
		Classification: Classify(in.Profile, in.Language),
		History:        history,
		TargetRound:    nextRound,
		LastEvaluation: &ev,
		Language:       in.Language,
	})
	if err != nil {
		return TurnResult{}, fmt.Errorf("op=usecase.SubmitTurn: %w", err)
	}
	res.NextQuestion = &q
	lg.Info("turn processed",
		slog.Int("score", ev.Score),
		slog.Bool("advance", advance),
		slog.Int("next_round", nextRound))
	return res, nil
}

func answersInRound(history []domain.QARecord, round int) int {
	n := 0
	for _, qa := range history {
		if qa.Round == round {
			n++
		}
	}
	return n
}

// validateTurn rebuilds the round position from the history alone: every
// earlier round must hold exactly QuestionsPerRound answers, so the history
// length at the end of round r is always r*QuestionsPerRound.
func validateTurn(in TurnInput) error {
	if in.CurrentRound < 1 || in.CurrentRound > domain.TotalRounds {
		return fmt.Errorf("%w: currentRound must be between 1 and %d, got %d", domain.ErrInvalidArgument, domain.TotalRounds, in.CurrentRound)
	}
	if strings.TrimSpace(in.Question) == "" {
		return fmt.Errorf("%w: question is required", domain.ErrInvalidArgument)
	}
	if in.Profile.IsEmpty() {
		return fmt.Errorf("%w: resume profile has no skills or projects", domain.ErrInvalidArgument)
	}
	prev := 1
	for i, qa := range in.History {
		if qa.Round < prev || qa.Round > in.CurrentRound {
			return fmt.Errorf("%w: qaHistory[%d] has round %d out of order", domain.ErrInvalidArgument, i, qa.Round)
		}
		prev = qa.Round
	}
	for r := 1; r < in.CurrentRound; r++ {
		if n := answersInRound(in.History, r); n != domain.QuestionsPerRound {
			return fmt.Errorf("%w: round %d has %d answers, want %d before round %d", domain.ErrInvalidArgument, r, n, domain.QuestionsPerRound, in.CurrentRound)
		}
	}
	if answersInRound(in.History, in.CurrentRound) >= domain.QuestionsPerRound {
		return fmt.Errorf("%w: round %d already has %d answers", domain.ErrInvalidArgument, in.CurrentRound, domain.QuestionsPerRound)
	}
	return nil
}
