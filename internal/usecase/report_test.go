package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain/mocks"
	"github.com/fairyhunter13/ai-mock-interview/internal/usecase"
)

const summaryJSON = `{"breakdown": {"technical": 88, "communication": 84, "problemSolving": 90},
"strengths": ["Deep Go knowledge"], "improvements": ["Talk about metrics"],
"detailedFeedback": "Strong overall.", "studyRecommendations": ["Consensus algorithms"]}`

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newReportService(gen domain.TextGenerator, repo domain.ReportRepository, pub domain.ReportPublisher) usecase.ReportService {
	s := usecase.NewReportService(gen, repo, pub)
	s.Now = func() time.Time { return fixedNow }
	s.NewID = func() string { return "rep-1" }
	return s
}

func TestCompile_RecommendationScenarios(t *testing.T) {
	t.Parallel()
	same := func(v int) []int {
		out := make([]int, 12)
		for i := range out {
			out[i] = v
		}
		return out
	}
	tests := []struct {
		name    string
		scores  []int
		overall int
		want    domain.Recommendation
	}{
		{"strong hire", []int{90, 85, 88, 92, 91, 87, 89, 93, 90, 86, 88, 91}, 89, domain.RecommendStrongHire},
		{"no hire", same(45), 45, domain.RecommendNoHire},
		{"hire boundary", same(65), 65, domain.RecommendHire},
		{"maybe boundary", same(50), 50, domain.RecommendMaybe},
		{"strong boundary", same(80), 80, domain.RecommendStrongHire},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGen{evalJSON: summaryJSON}
			rep, err := newReportService(gen, nil, nil).Compile(context.Background(), usecase.ReportInput{
				Profile:  backendProfile(),
				History:  historyWithScores(tt.scores...),
				Language: domain.LangEN,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.overall, rep.OverallScore)
			assert.Equal(t, tt.want, rep.Recommendation)
			assert.Equal(t, 12, rep.QuestionCount)
		})
	}
}

func TestCompile_EmptyHistoryIsPreconditionViolation(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{evalJSON: summaryJSON}
	_, err := newReportService(gen, nil, nil).Compile(context.Background(), usecase.ReportInput{Profile: backendProfile()})
	assert.ErrorIs(t, err, domain.ErrPreconditionViolation)
	assert.Empty(t, gen.prompts)
}

func TestCompile_FieldsFromSummary(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{evalJSON: summaryJSON}
	rep, err := newReportService(gen, nil, nil).Compile(context.Background(), usecase.ReportInput{
		Profile:     backendProfile(),
		History:     historyWithScores(80, 80, 80, 80, 60, 60, 60, 60, 70, 70, 70, 70),
		DurationSec: 1830,
		Language:    domain.LangEN,
	})
	require.NoError(t, err)
	assert.Equal(t, "rep-1", rep.ID)
	assert.Equal(t, fixedNow, rep.CreatedAt)
	assert.Equal(t, "technical", rep.InterviewType)
	assert.Equal(t, domain.RoleBackend, rep.RoleCategory)
	assert.Equal(t, domain.Breakdown{Technical: 88, Communication: 84, ProblemSolving: 90}, rep.Breakdown)
	assert.Equal(t, []int{80, 60, 70}, rep.RoundScores)
	assert.Equal(t, []string{"Deep Go knowledge"}, rep.Strengths)
	assert.Equal(t, []string{"Consensus algorithms"}, rep.StudyRecommendations)
	assert.Contains(t, rep.RenderedDocument, "# Mock Interview Report")
	assert.Contains(t, rep.RenderedDocument, "30m 30s")

	require.Len(t, gen.opts, 1)
	assert.True(t, gen.opts[0].JSONMode)
	assert.Equal(t, 1500, gen.opts[0].MaxTokens)
	assert.Contains(t, gen.prompts[0], `"studyRecommendations"`)
}

func TestCompile_MalformedSummaryUsesOverall(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{evalJSON: "Sorry, I can't do that."}
	rep, err := newReportService(gen, nil, nil).Compile(context.Background(), usecase.ReportInput{
		Profile:  backendProfile(),
		History:  historyWithScores(70, 72),
		Language: domain.LangZH,
	})
	require.NoError(t, err)
	assert.Equal(t, 71, rep.OverallScore)
	assert.Equal(t, domain.Breakdown{Technical: 71, Communication: 71, ProblemSolving: 71}, rep.Breakdown)
	assert.Equal(t, []string{}, rep.Strengths)
	assert.Contains(t, rep.DetailedFeedback, "71/100")
	assert.Contains(t, rep.RenderedDocument, "模拟面试报告")
}

func TestCompile_PartialBreakdownFallsBackPerField(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{evalJSON: `{"breakdown": {"technical": "91"}, "strengths": [], "improvements": [], "detailedFeedback": "x", "studyRecommendations": []}`}
	rep, err := newReportService(gen, nil, nil).Compile(context.Background(), usecase.ReportInput{
		Profile: backendProfile(),
		History: historyWithScores(60),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Breakdown{Technical: 91, Communication: 60, ProblemSolving: 60}, rep.Breakdown)
}

func TestCompile_PersistsAndPublishes(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{evalJSON: summaryJSON}
	repo := mocks.NewMockReportRepository(t)
	pub := mocks.NewMockReportPublisher(t)
	isReport := mock.MatchedBy(func(r domain.FinalReport) bool { return r.ID == "rep-1" && r.RenderedDocument != "" })
	repo.On("Save", mock.Anything, isReport).Return(errors.New("db down"))
	pub.On("PublishReport", mock.Anything, isReport).Return(nil)

	rep, err := newReportService(gen, repo, pub).Compile(context.Background(), usecase.ReportInput{
		Profile: backendProfile(),
		History: historyWithScores(75),
	})
	require.NoError(t, err, "storage errors are logged, not returned")
	assert.Equal(t, "rep-1", rep.ID)
}

func TestCompile_ProviderErrorPropagates(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{err: domain.ErrUpstreamTimeout}
	_, err := newReportService(gen, nil, nil).Compile(context.Background(), usecase.ReportInput{
		Profile: backendProfile(),
		History: historyWithScores(75),
	})
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestReportService_Get(t *testing.T) {
	t.Parallel()
	_, err := newReportService(&fakeGen{}, nil, nil).Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	repo := mocks.NewMockReportRepository(t)
	repo.On("Get", mock.Anything, "rep-9").Return(domain.FinalReport{ID: "rep-9"}, nil)
	rep, err := newReportService(&fakeGen{}, repo, nil).Get(context.Background(), "rep-9")
	require.NoError(t, err)
	assert.Equal(t, "rep-9", rep.ID)
}

func TestOverallScoreRounding(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, usecase.OverallScore(nil))
	assert.Equal(t, 51, usecase.OverallScore(historyWithScores(50, 51)))
	assert.Equal(t, 67, usecase.OverallScore(historyWithScores(66, 67, 67)))
}

func TestRenderReport_Deterministic(t *testing.T) {
	t.Parallel()
	r := domain.FinalReport{
		Language:       domain.LangEN,
		OverallScore:   66,
		Recommendation: domain.RecommendHire,
		Breakdown:      domain.Breakdown{Technical: 70, Communication: 60, ProblemSolving: 68},
		RoundScores:    []int{60, 70, 68},
		Strengths:      []string{"Clear"},
		QuestionCount:  12,
	}
	a, err := usecase.RenderReport(r)
	require.NoError(t, err)
	b, err := usecase.RenderReport(r)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "**Recommendation:** Hire")
	assert.Contains(t, a, "- Round 2: 70")
	assert.Contains(t, a, "- Clear")
	assert.Contains(t, a, "None noted.")
	assert.Contains(t, a, "| 70 | 60 | 68 |")
}
