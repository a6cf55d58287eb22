// Package domain holds the interview entities, ports and error taxonomy shared
// by the usecases and adapters.
package domain

import (
	"context"
	"strings"
	"time"
)

// Interview shape. The orchestrator relies on these instead of caller counters.
const (
	TotalRounds       = 3
	QuestionsPerRound = 4
	MaxScore          = 100
)

// Language selects prompt templates and output text.
type Language string

const (
	LangZH Language = "zh"
	LangEN Language = "en"
)

// ParseLanguage maps free-form input to a supported language, defaulting to English.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zh", "zh-cn", "zh_cn", "cn", "chinese":
		return LangZH
	default:
		return LangEN
	}
}

// Skills groups the technical skills extracted from a resume.
type Skills struct {
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
	Tools      []string `json:"tools"`
}

// All returns every skill in declaration order.
func (s Skills) All() []string {
	out := make([]string, 0, len(s.Languages)+len(s.Frameworks)+len(s.Tools))
	out = append(out, s.Languages...)
	out = append(out, s.Frameworks...)
	out = append(out, s.Tools...)
	return out
}

// Project is a single resume project.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TechStack   []string `json:"techStack"`
}

// ResumeProfile is the structured resume consumed by the interview.
// It is immutable once the interview starts.
type ResumeProfile struct {
	YearsOfExperience int       `json:"yearsOfExperience"`
	Skills            Skills    `json:"skills"`
	Projects          []Project `json:"projects"`
	FocusAreas        []string  `json:"focusAreas"`
}

// IsEmpty reports whether the profile carries neither skills nor projects.
func (p ResumeProfile) IsEmpty() bool {
	return len(p.Skills.All()) == 0 && len(p.Projects) == 0
}

// QARecord is one answered question in the interview history.
type QARecord struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	DurationMs int    `json:"durationMs"`
	Round      int    `json:"round"`
	Score      int    `json:"score"`
}

// RoleCategory is the coarse job function inferred from a resume.
type RoleCategory string

const (
	RoleFrontend   RoleCategory = "frontend"
	RoleBackend    RoleCategory = "backend"
	RoleFullstack  RoleCategory = "fullstack"
	RoleMobile     RoleCategory = "mobile"
	RoleDevOps     RoleCategory = "devops"
	RoleData       RoleCategory = "data"
	RoleProduct    RoleCategory = "product"
	RoleDesign     RoleCategory = "design"
	RoleOperations RoleCategory = "operations"
	RoleGeneral    RoleCategory = "general"
)

// Classification is the classifier output used to steer question generation.
type Classification struct {
	Role          RoleCategory `json:"roleCategory"`
	TopicBriefing string       `json:"topicBriefing"`
}

// Question is a generated interview question. ID is opaque and only used to
// correlate the client's next answer submission.
type Question struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Round      int    `json:"round"`
	FocusTopic string `json:"focusTopic"`
}

// Evaluation is the scored assessment of one answer.
// Strengths and Weaknesses are never nil.
type Evaluation struct {
	Score      int      `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Feedback   string   `json:"feedback"`
}

// ZeroEvaluation is the safe default used when provider output cannot be parsed.
func ZeroEvaluation() Evaluation {
	return Evaluation{Score: 0, Strengths: []string{}, Weaknesses: []string{}, Feedback: ""}
}

// Recommendation is the hiring verdict of a final report.
type Recommendation string

const (
	RecommendStrongHire Recommendation = "strong-hire"
	RecommendHire       Recommendation = "hire"
	RecommendMaybe      Recommendation = "maybe"
	RecommendNoHire     Recommendation = "no-hire"
)

// Breakdown splits the overall score by dimension.
type Breakdown struct {
	Technical      int `json:"technical"`
	Communication  int `json:"communication"`
	ProblemSolving int `json:"problemSolving"`
}

// FinalReport is built once from a complete history and never mutated.
type FinalReport struct {
	ID                   string         `json:"id"`
	Language             Language       `json:"language"`
	InterviewType        string         `json:"interviewType"`
	RoleCategory         RoleCategory   `json:"roleCategory"`
	OverallScore         int            `json:"overallScore"`
	Recommendation       Recommendation `json:"recommendation"`
	Breakdown            Breakdown      `json:"breakdown"`
	RoundScores          []int          `json:"roundScores"`
	Strengths            []string       `json:"strengths"`
	Improvements         []string       `json:"improvements"`
	DetailedFeedback     string         `json:"detailedFeedback"`
	StudyRecommendations []string       `json:"studyRecommendations"`
	QuestionCount        int            `json:"questionCount"`
	DurationSec          int            `json:"durationSec"`
	RenderedDocument     string         `json:"renderedDocument"`
	CreatedAt            time.Time      `json:"createdAt"`
}

// AttemptOutcome classifies a single provider attempt.
type AttemptOutcome string

const (
	OutcomeSuccess     AttemptOutcome = "success"
	OutcomeRateLimited AttemptOutcome = "rateLimited"
	OutcomeOtherError  AttemptOutcome = "otherError"
	OutcomeTimeout     AttemptOutcome = "timeout"
)

// Attempt is one entry of the ephemeral provider attempt log.
type Attempt struct {
	ProviderID string         `json:"providerId"`
	ModelID    string         `json:"modelId"`
	Outcome    AttemptOutcome `json:"outcome"`
	Latency    time.Duration  `json:"-"`
	LatencyMs  int64          `json:"latencyMs"`
	Skipped    bool           `json:"skipped,omitempty"`
}

// InvokeOptions tunes one logical text-generation call.
type InvokeOptions struct {
	JSONMode    bool
	MaxTokens   int
	Temperature float32
	// Operation labels metrics and logs (evaluate, question, report, resume).
	Operation string
}

// Invocation is the result of one logical call through the provider chain.
type Invocation struct {
	Text     string
	Attempts []Attempt
}

// Ports

//go:generate mockery --name=TextGenerator --structname=MockTextGenerator --filename=text_generator_mock.go
//go:generate mockery --name=ReportRepository --structname=MockReportRepository --filename=report_repository_mock.go
//go:generate mockery --name=ReportPublisher --structname=MockReportPublisher --filename=report_publisher_mock.go

// TextGenerator sends a prompt through the provider chain.
type TextGenerator interface {
	Invoke(ctx context.Context, prompt string, opts InvokeOptions) (Invocation, error)
}

// ReportRepository persists compiled final reports.
type ReportRepository interface {
	Save(ctx context.Context, r FinalReport) error
	Get(ctx context.Context, id string) (FinalReport, error)
}

// ReportPublisher announces compiled reports to downstream consumers.
type ReportPublisher interface {
	PublishReport(ctx context.Context, r FinalReport) error
}
