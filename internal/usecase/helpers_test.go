package usecase_test

import (
	"context"
	"sync"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

// fakeGen answers every JSON call with evalJSON and every free-text call
// with question, recording prompts.
type fakeGen struct {
	mu       sync.Mutex
	evalJSON string
	question string
	err      error
	prompts  []string
	opts     []domain.InvokeOptions
}

func (f *fakeGen) Invoke(_ context.Context, prompt string, opts domain.InvokeOptions) (domain.Invocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return domain.Invocation{}, f.err
	}
	att := []domain.Attempt{{ProviderID: "fake", ModelID: "m1", Outcome: domain.OutcomeSuccess}}
	if opts.JSONMode {
		return domain.Invocation{Text: f.evalJSON, Attempts: att}, nil
	}
	return domain.Invocation{Text: f.question, Attempts: att}, nil
}

func backendProfile() domain.ResumeProfile {
	return domain.ResumeProfile{
		YearsOfExperience: 5,
		Skills: domain.Skills{
			Languages: []string{"Go", "SQL"},
			Tools:     []string{"PostgreSQL", "Redis"},
		},
		Projects: []domain.Project{{
			Name:        "Payments API",
			Description: "Designed an idempotent payments service handling 2k rps",
			TechStack:   []string{"Go", "PostgreSQL"},
		}},
	}
}

func historyWithScores(scores ...int) []domain.QARecord {
	out := make([]domain.QARecord, 0, len(scores))
	for i, s := range scores {
		out = append(out, domain.QARecord{
			Question: "q",
			Answer:   "a",
			Round:    i/domain.QuestionsPerRound + 1,
			Score:    s,
		})
	}
	return out
}
