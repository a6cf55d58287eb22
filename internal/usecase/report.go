package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/pkg/textx"
)

const maxDetailedFeedback = 4000

// ReportInput is a finished interview.
type ReportInput struct {
	Profile       domain.ResumeProfile
	History       []domain.QARecord
	DurationSec   int
	Language      domain.Language
	InterviewType string
}

// ReportService compiles, stores and announces final reports.
// Reports and Publisher are optional.
type ReportService struct {
	AI        domain.TextGenerator
	Reports   domain.ReportRepository
	Publisher domain.ReportPublisher
	Now       func() time.Time
	NewID     func() string
}

// NewReportService constructs a ReportService. repo and pub may be nil.
func NewReportService(gen domain.TextGenerator, repo domain.ReportRepository, pub domain.ReportPublisher) ReportService {
	return ReportService{AI: gen, Reports: repo, Publisher: pub, Now: time.Now, NewID: uuid.NewString}
}

// Compile builds the final report for a complete history.
func (s ReportService) Compile(ctx context.Context, in ReportInput) (domain.FinalReport, error) {
	ctx, span := otel.Tracer("usecase.report").Start(ctx, "ReportService.Compile")
	defer span.End()
	lg := observability.LoggerFromContext(ctx)

	if len(in.History) == 0 {
		return domain.FinalReport{}, fmt.Errorf("op=usecase.Compile: %w: empty qaHistory", domain.ErrPreconditionViolation)
	}
	overall := OverallScore(in.History)
	rec := RecommendationFor(overall)
	span.SetAttributes(attribute.Int("report.overall", overall), attribute.String("report.recommendation", string(rec)))

	inv, err := s.AI.Invoke(ctx, reportPrompt(in.Profile, in.History, overall, in.Language), domain.InvokeOptions{
		JSONMode:    true,
		MaxTokens:   1500,
		Temperature: 0.3,
		Operation:   "report",
	})
	if err != nil {
		return domain.FinalReport{}, fmt.Errorf("op=usecase.Compile: %w", err)
	}
	summary, perr := parseReportSummary(inv.Text, overall)
	if perr != nil {
		lg.Warn("report summary unusable, using score-only report",
			slog.String("snippet", textx.TruncateRunes(inv.Text, 200, "...")),
			slog.Any("error", perr))
		summary = fallbackSummary(overall, in.Language)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	newID := uuid.NewString
	if s.NewID != nil {
		newID = s.NewID
	}
	interviewType := strings.TrimSpace(in.InterviewType)
	if interviewType == "" {
		interviewType = "technical"
	}
	rep := domain.FinalReport{
		ID:                   newID(),
		Language:             in.Language,
		InterviewType:        interviewType,
		RoleCategory:         Classify(in.Profile, in.Language).Role,
		OverallScore:         overall,
		Recommendation:       rec,
		Breakdown:            summary.Breakdown,
		RoundScores:          RoundScores(in.History),
		Strengths:            summary.Strengths,
		Improvements:         summary.Improvements,
		DetailedFeedback:     summary.DetailedFeedback,
		StudyRecommendations: summary.StudyRecommendations,
		QuestionCount:        len(in.History),
		DurationSec:          in.DurationSec,
		CreatedAt:            now().UTC(),
	}
	doc, err := RenderReport(rep)
	if err != nil {
		return domain.FinalReport{}, fmt.Errorf("op=usecase.Compile: %w: %v", domain.ErrInternal, err)
	}
	rep.RenderedDocument = doc

	if s.Reports != nil {
		if err := s.Reports.Save(ctx, rep); err != nil {
			lg.Error("failed to persist report", slog.String("report_id", rep.ID), slog.Any("error", err))
		}
	}
	if s.Publisher != nil {
		if err := s.Publisher.PublishReport(ctx, rep); err != nil {
			lg.Error("failed to publish report", slog.String("report_id", rep.ID), slog.Any("error", err))
		}
	}
	observability.ObserveReport(string(rec))
	lg.Info("report compiled",
		slog.String("report_id", rep.ID),
		slog.Int("overall", overall),
		slog.String("recommendation", string(rec)))
	return rep, nil
}

// Get loads a stored report.
func (s ReportService) Get(ctx context.Context, id string) (domain.FinalReport, error) {
	if s.Reports == nil {
		return domain.FinalReport{}, fmt.Errorf("%w: report storage disabled", domain.ErrNotFound)
	}
	rep, err := s.Reports.Get(ctx, id)
	if err != nil {
		return domain.FinalReport{}, fmt.Errorf("op=usecase.GetReport: %w", err)
	}
	return rep, nil
}

// OverallScore is the unweighted mean of all scores rounded half away from zero.
func OverallScore(history []domain.QARecord) int {
	if len(history) == 0 {
		return 0
	}
	sum := 0
	for _, qa := range history {
		sum += qa.Score
	}
	return int(math.Round(float64(sum) / float64(len(history))))
}

// RecommendationFor applies the inclusive thresholds 80/65/50.
func RecommendationFor(score int) domain.Recommendation {
	switch {
	case score >= 80:
		return domain.RecommendStrongHire
	case score >= 65:
		return domain.RecommendHire
	case score >= 50:
		return domain.RecommendMaybe
	default:
		return domain.RecommendNoHire
	}
}

// RoundScores returns the rounded mean per round; rounds without answers are 0.
func RoundScores(history []domain.QARecord) []int {
	sums := make([]int, domain.TotalRounds)
	counts := make([]int, domain.TotalRounds)
	for _, qa := range history {
		if qa.Round < 1 || qa.Round > domain.TotalRounds {
			continue
		}
		sums[qa.Round-1] += qa.Score
		counts[qa.Round-1]++
	}
	out := make([]int, domain.TotalRounds)
	for i := range out {
		if counts[i] > 0 {
			out[i] = int(math.Round(float64(sums[i]) / float64(counts[i])))
		}
	}
	return out
}

type reportSummary struct {
	Breakdown            domain.Breakdown
	Strengths            []string
	Improvements         []string
	DetailedFeedback     string
	StudyRecommendations []string
}

type rawReportSummary struct {
	Breakdown struct {
		Technical      json.RawMessage `json:"technical"`
		Communication  json.RawMessage `json:"communication"`
		ProblemSolving json.RawMessage `json:"problemSolving"`
	} `json:"breakdown"`
	Strengths            []string `json:"strengths"`
	Improvements         []string `json:"improvements"`
	DetailedFeedback     string   `json:"detailedFeedback"`
	StudyRecommendations []string `json:"studyRecommendations"`
}

func parseReportSummary(text string, overall int) (reportSummary, error) {
	cleaned, ok := ai.CleanJSONResponse(text)
	if !ok {
		return reportSummary{}, fmt.Errorf("%w: no JSON object", domain.ErrMalformedProviderOutput)
	}
	var raw rawReportSummary
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return reportSummary{}, fmt.Errorf("%w: %v", domain.ErrMalformedProviderOutput, err)
	}
	return reportSummary{
		Breakdown: domain.Breakdown{
			Technical:      scoreOr(raw.Breakdown.Technical, overall),
			Communication:  scoreOr(raw.Breakdown.Communication, overall),
			ProblemSolving: scoreOr(raw.Breakdown.ProblemSolving, overall),
		},
		Strengths:            textx.CleanList(raw.Strengths, maxListEntries),
		Improvements:         textx.CleanList(raw.Improvements, maxListEntries),
		DetailedFeedback:     textx.TruncateRunes(strings.TrimSpace(raw.DetailedFeedback), maxDetailedFeedback, "..."),
		StudyRecommendations: textx.CleanList(raw.StudyRecommendations, maxListEntries),
	}, nil
}

// scoreOr falls back to def for a missing or unparsable dimension.
func scoreOr(raw json.RawMessage, def int) int {
	n, err := parseScore(raw)
	if err != nil {
		return def
	}
	return n
}

func fallbackSummary(overall int, lang domain.Language) reportSummary {
	feedback := fmt.Sprintf("Overall score %d/100. A detailed written assessment could not be generated for this interview.", overall)
	if lang == domain.LangZH {
		feedback = fmt.Sprintf("总分 %d/100。本次面试未能生成详细的文字评估。", overall)
	}
	return reportSummary{
		Breakdown:            domain.Breakdown{Technical: overall, Communication: overall, ProblemSolving: overall},
		Strengths:            []string{},
		Improvements:         []string{},
		DetailedFeedback:     feedback,
		StudyRecommendations: []string{},
	}
}
