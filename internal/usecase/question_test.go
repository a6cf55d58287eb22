package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/internal/usecase"
)

func newQuestionService(gen domain.TextGenerator) usecase.QuestionService {
	qs := usecase.NewQuestionService(gen)
	qs.NewID = func() string { return "q-fixed" }
	return qs
}

func TestGenerateNext_CleansOutput(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{question: "Question: \"How would you make the payments API idempotent?\"\n"}
	q, err := newQuestionService(gen).GenerateNext(context.Background(), usecase.QuestionInput{
		Profile:     backendProfile(),
		TargetRound: 2,
		Language:    domain.LangEN,
	})
	require.NoError(t, err)
	assert.Equal(t, "How would you make the payments API idempotent?", q.Text)
	assert.Equal(t, "q-fixed", q.ID)
	assert.Equal(t, 2, q.Round)
	assert.NotEmpty(t, q.FocusTopic)

	require.Len(t, gen.opts, 1)
	assert.False(t, gen.opts[0].JSONMode)
	assert.InDelta(t, 0.7, gen.opts[0].Temperature, 1e-6)
	assert.Equal(t, 200, gen.opts[0].MaxTokens)
}

func TestGenerateNext_EmptyOutputFallsBack(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{question: "  \"\"  "}
	q, err := newQuestionService(gen).GenerateNext(context.Background(), usecase.QuestionInput{
		Profile:     backendProfile(),
		TargetRound: 1,
		Language:    domain.LangZH,
	})
	require.NoError(t, err)
	assert.Contains(t, q.Text, q.FocusTopic)
	assert.Contains(t, q.Text, "请结合你的实际经历")
}

func TestGenerateNext_RefusalFallsBack(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{question: "I'm sorry, but I can't help with generating that."}
	q, err := newQuestionService(gen).GenerateNext(context.Background(), usecase.QuestionInput{
		Profile:     backendProfile(),
		TargetRound: 3,
		Language:    domain.LangEN,
	})
	require.NoError(t, err)
	assert.Contains(t, q.Text, "Drawing on your own experience")
	assert.Contains(t, q.Text, q.FocusTopic)
}

func TestGenerateNext_ScoreRules(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		last *domain.Evaluation
		want string
	}{
		{"opening", nil, "opening question"},
		{"deepen", &domain.Evaluation{Score: 80}, "go deeper"},
		{"pivot", &domain.Evaluation{Score: 79}, "pivot"},
		{"pivot lower bound", &domain.Evaluation{Score: 60}, "pivot"},
		{"fundamentals", &domain.Evaluation{Score: 59}, "fundamentals"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGen{question: "Next?"}
			_, err := newQuestionService(gen).GenerateNext(context.Background(), usecase.QuestionInput{
				Profile:        backendProfile(),
				TargetRound:    1,
				LastEvaluation: tt.last,
				Language:       domain.LangEN,
			})
			require.NoError(t, err)
			assert.Contains(t, gen.prompts[0], tt.want)
		})
	}
}

func TestGenerateNext_TruncatesAnswersInPrompt(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("z", 2000)
	gen := &fakeGen{question: "Next?"}
	_, err := newQuestionService(gen).GenerateNext(context.Background(), usecase.QuestionInput{
		Profile:     backendProfile(),
		History:     []domain.QARecord{{Question: "Tell me about caching", Answer: long, Round: 1, Score: 70}},
		TargetRound: 1,
		Language:    domain.LangEN,
	})
	require.NoError(t, err)
	p := gen.prompts[0]
	assert.Contains(t, p, "Tell me about caching")
	assert.NotContains(t, p, long)
	assert.Contains(t, p, strings.Repeat("z", 297)+"...")
	assert.Contains(t, p, "Candidate track: backend")
}

func TestGenerateNext_ProviderError(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{err: domain.ErrProviderFatal}
	_, err := newQuestionService(gen).GenerateNext(context.Background(), usecase.QuestionInput{Profile: backendProfile(), TargetRound: 3})
	assert.ErrorIs(t, err, domain.ErrProviderFatal)
}
