// Package stub is a deterministic offline provider used for local runs
// (AI_STUB=true) and end-to-end tests. It recognises the JSON shape the prompt
// asks for and answers with plausible fixed content.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai"
)

// Provider never fails.
type Provider struct {
	id string
}

var _ ai.Provider = (*Provider)(nil)

// New creates a stub provider with the given ID.
func New(id string) *Provider {
	if id == "" {
		id = "stub"
	}
	return &Provider{id: id}
}

// ID returns the provider ID.
func (p *Provider) ID() string { return p.id }

var questions = []string{
	"Walk me through how you would design a rate limiter shared by several service instances.",
	"Tell me about a production incident you debugged and what you changed afterwards.",
	"How do you decide between adding a cache and optimising the underlying query?",
	"Which trade-offs did you make in the most complex project on your resume?",
	"How would you test a component that depends on an unreliable external API?",
}

// Generate returns a canned answer keyed off the prompt.
func (p *Provider) Generate(ctx context.Context, _ string, req ai.Request) ai.Outcome {
	if err := ctx.Err(); err != nil {
		return ai.Fatal(err)
	}
	h := hash(req.Prompt)
	score := 55 + int(h%40)

	var payload any
	switch {
	case !req.JSONMode:
		return ai.Success(questions[h%uint32(len(questions))])
	case strings.Contains(req.Prompt, `"studyRecommendations"`):
		payload = map[string]any{
			"breakdown":            map[string]int{"technical": score, "communication": score - 3, "problemSolving": score + 2},
			"strengths":            []string{"Clear structure in answers", "Relevant project experience"},
			"improvements":         []string{"Quantify impact with concrete numbers"},
			"detailedFeedback":     "The candidate communicated clearly and grounded answers in real projects.",
			"studyRecommendations": []string{"Distributed systems fundamentals", "Load testing practice"},
		}
	case strings.Contains(req.Prompt, `"yearsOfExperience"`):
		payload = map[string]any{
			"yearsOfExperience": 4,
			"skills":            map[string][]string{"languages": {"Go", "SQL"}, "frameworks": {"chi"}, "tools": {"Docker", "PostgreSQL", "Redis"}},
			"projects":          []map[string]any{{"name": "Interview platform", "description": "Backend services for mock interviews", "techStack": []string{"Go", "PostgreSQL"}}},
			"focusAreas":        []string{"backend", "reliability"},
		}
	default:
		payload = map[string]any{
			"score":      score,
			"strengths":  []string{"Answer is on topic"},
			"weaknesses": []string{"Could go deeper on trade-offs"},
			"feedback":   fmt.Sprintf("Reasonable answer; score %d reflects depth and clarity.", score),
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ai.Fatal(err)
	}
	return ai.Success(string(b))
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
