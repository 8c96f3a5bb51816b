package ai

import (
	"context"

	"github.com/spigell/career-matcher/internal/matching"
	"github.com/spigell/career-matcher/internal/profile"
)

// Explanation is a narrative over a ranked list of careers.
type Explanation struct {
	Summary  string          `json:"summary"`
	Careers  []CareerInsight `json:"careers,omitempty"`
	Raw      string          `json:"-"`
	Provider string          `json:"provider,omitempty"`
	Model    string          `json:"model,omitempty"`
}

type CareerInsight struct {
	ID        string   `json:"id"`
	Reason    string   `json:"reason"`
	NextSteps []string `json:"nextSteps,omitempty"`
}

// Explainer describes why the given matches suit the profile.
type Explainer interface {
	Explain(ctx context.Context, p *profile.Profile, matches []matching.Result) (*Explanation, error)
}
