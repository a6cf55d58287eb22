package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/pkg/textx"
)

// ResumeService turns raw resume text into a ResumeProfile.
type ResumeService struct {
	AI domain.TextGenerator
}

// NewResumeService constructs a ResumeService.
func NewResumeService(gen domain.TextGenerator) ResumeService {
	return ResumeService{AI: gen}
}

// Analyze extracts a profile from text. The result is only checked for the
// presence of skills and projects.
func (s ResumeService) Analyze(ctx context.Context, text string, lang domain.Language) (domain.ResumeProfile, error) {
	text = textx.SanitizeText(text)
	if text == "" {
		return domain.ResumeProfile{}, fmt.Errorf("%w: resume text is empty", domain.ErrInvalidArgument)
	}
	text = textx.TruncateRunes(text, resumeInputRunes, "")

	inv, err := s.AI.Invoke(ctx, resumeAnalysisPrompt(text, lang), domain.InvokeOptions{
		JSONMode:    true,
		MaxTokens:   1500,
		Temperature: 0.2,
		Operation:   "resume",
	})
	if err != nil {
		return domain.ResumeProfile{}, fmt.Errorf("op=usecase.AnalyzeResume: %w", err)
	}
	cleaned, ok := ai.CleanJSONResponse(inv.Text)
	if !ok {
		return domain.ResumeProfile{}, fmt.Errorf("op=usecase.AnalyzeResume: %w: no JSON object", domain.ErrSchemaInvalid)
	}
	var p domain.ResumeProfile
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return domain.ResumeProfile{}, fmt.Errorf("op=usecase.AnalyzeResume: %w: %v", domain.ErrSchemaInvalid, err)
	}
	p = normalizeProfile(p)
	if len(p.Skills.All()) == 0 {
		return domain.ResumeProfile{}, fmt.Errorf("op=usecase.AnalyzeResume: %w: no skills", domain.ErrSchemaInvalid)
	}
	if len(p.Projects) == 0 {
		return domain.ResumeProfile{}, fmt.Errorf("op=usecase.AnalyzeResume: %w: no projects", domain.ErrSchemaInvalid)
	}
	observability.LoggerFromContext(ctx).Info("resume analyzed",
		slog.Int("skills", len(p.Skills.All())),
		slog.Int("projects", len(p.Projects)))
	return p, nil
}

func normalizeProfile(p domain.ResumeProfile) domain.ResumeProfile {
	if p.YearsOfExperience < 0 {
		p.YearsOfExperience = 0
	}
	p.Skills.Languages = textx.CleanList(p.Skills.Languages, 0)
	p.Skills.Frameworks = textx.CleanList(p.Skills.Frameworks, 0)
	p.Skills.Tools = textx.CleanList(p.Skills.Tools, 0)
	p.FocusAreas = textx.CleanList(p.FocusAreas, maxListEntries)
	projects := make([]domain.Project, 0, len(p.Projects))
	for _, pr := range p.Projects {
		pr.Name = strings.TrimSpace(pr.Name)
		pr.Description = strings.TrimSpace(pr.Description)
		if pr.Name == "" && pr.Description == "" {
			continue
		}
		pr.TechStack = textx.CleanList(pr.TechStack, 0)
		projects = append(projects, pr)
	}
	p.Projects = projects
	return p
}
