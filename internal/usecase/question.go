package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/pkg/textx"
)

const maxQuestionRunes = 500

// QuestionInput carries everything the generator needs for one question.
type QuestionInput struct {
	Profile        domain.ResumeProfile
	Classification domain.Classification
	History        []domain.QARecord
	TargetRound    int
	LastEvaluation *domain.Evaluation
	Language       domain.Language
}

// QuestionService generates the next interview question.
type QuestionService struct {
	AI domain.TextGenerator
	// NewID is overridable in tests.
	NewID func() string
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(gen domain.TextGenerator) QuestionService {
	return QuestionService{AI: gen, NewID: uuid.NewString}
}

// GenerateNext asks the provider chain for the next question of in.TargetRound.
// Only provider failures are returned; empty or refused output falls back to a
// canned question on the round's focus topic.
func (s QuestionService) GenerateNext(ctx context.Context, in QuestionInput) (domain.Question, error) {
	if in.Classification.TopicBriefing == "" {
		in.Classification = Classify(in.Profile, in.Language)
	}
	topic := focusTopic(in.Classification.Role, in.Language, in.TargetRound)

	inv, err := s.AI.Invoke(ctx, questionPrompt(in), domain.InvokeOptions{
		MaxTokens:   200,
		Temperature: 0.7,
		Operation:   "question",
	})
	if err != nil {
		return domain.Question{}, fmt.Errorf("op=usecase.GenerateNext round=%d: %w", in.TargetRound, err)
	}

	text := cleanQuestion(inv.Text)
	if text == "" || ai.LooksLikeRefusal(text) {
		observability.LoggerFromContext(ctx).Warn("unusable question from provider, using fallback",
			slog.Int("round", in.TargetRound),
			slog.Bool("refusal", text != ""),
			slog.Int("attempts", len(inv.Attempts)))
		text = fallbackQuestion(topic, in.Language)
	}
	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return domain.Question{
		ID:         newID(),
		Text:       text,
		Round:      in.TargetRound,
		FocusTopic: topic,
	}, nil
}

var questionPrefixRe = regexp.MustCompile(`(?i)^\s*(?:\*\*)?(?:question|q\d*|问题|下一题)\s*\d*\s*(?:\*\*)?\s*[:：.]\s*(?:\*\*)?\s*`)

// cleanQuestion trims wrapping quotes and a leading "Question:" label.
func cleanQuestion(s string) string {
	s = strings.TrimSpace(s)
	s = questionPrefixRe.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t\r\n\"'`“”‘’「」")
	s = strings.TrimSpace(s)
	return textx.TruncateRunes(s, maxQuestionRunes, "...")
}

func fallbackQuestion(topic string, lang domain.Language) string {
	if lang == domain.LangZH {
		return fmt.Sprintf("请结合你的实际经历，谈谈你在「%s」方面的理解和实践。", topic)
	}
	return fmt.Sprintf("Drawing on your own experience, what is your approach to %s?", topic)
}
