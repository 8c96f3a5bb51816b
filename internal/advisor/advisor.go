// Package advisor turns a profile into a filtered, optionally explained
// career recommendation.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/career-matcher/internal/ai"
	"github.com/spigell/career-matcher/internal/filtering"
	"github.com/spigell/career-matcher/internal/matching"
	"github.com/spigell/career-matcher/internal/metrics"
	"github.com/spigell/career-matcher/internal/profile"
)

const DefaultTopN = 5

var ErrNoProfile = errors.New("profile is required")

// Request is a single recommendation query.
type Request struct {
	Profile *profile.Profile
	TopN    int
	Explain bool
	Filters Overrides
}

// Overrides adjusts the configured filters for one request. A nil MinScore
// and empty fields keep the configured values; ExcludeIDs are added to them.
type Overrides struct {
	MinScore    *int
	Categories  []string
	ExcludeIDs  []string
	ExcludeFile string
}

type Recommendation struct {
	Matches          []matching.Result  `json:"matches"`
	Filters          []filtering.Status `json:"filters"`
	Explanation      *ai.Explanation    `json:"explanation,omitempty"`
	ExplanationError string             `json:"explanationError,omitempty"`
}

type Option func(*Advisor)

func WithFilters(cfg filtering.Config) Option {
	return func(a *Advisor) { a.filters = cfg }
}

func WithExplainer(e ai.Explainer) Option {
	return func(a *Advisor) { a.explainer = e }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(a *Advisor) { a.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Advisor) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithDefaultTopN(n int) Option {
	return func(a *Advisor) {
		if n > 0 {
			a.topN = n
		}
	}
}

// Advisor is safe for concurrent use; filter chains are built per request.
type Advisor struct {
	engine    *matching.Engine
	filters   filtering.Config
	explainer ai.Explainer
	metrics   *metrics.Manager
	logger    *zap.Logger
	topN      int
}

func New(engine *matching.Engine, opts ...Option) *Advisor {
	a := &Advisor{
		engine: engine,
		logger: zap.NewNop(),
		topN:   DefaultTopN,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Recommend ranks the whole catalog, applies the filters, keeps the best
// TopN and, when asked, attaches an AI explanation. A failed explanation
// never fails the recommendation.
func (a *Advisor) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	if req.Profile == nil {
		return nil, ErrNoProfile
	}
	start := time.Now()

	ranked := a.engine.Match(req.Profile.BigFive, req.Profile.Holland, 0)

	steps := filtering.Defaults()
	cfg := a.merge(req.Filters)
	filtered, err := filtering.Run(ctx, &cfg, filtering.Deps{Logger: a.logger}, steps, ranked)
	if err != nil {
		return nil, fmt.Errorf("filtering matches: %w", err)
	}

	topN := req.TopN
	if topN <= 0 {
		topN = a.topN
	}
	if topN < len(filtered) {
		filtered = filtered[:topN]
	}

	rec := &Recommendation{
		Matches: filtered,
		Filters: filtering.Describe(steps),
	}

	a.logger.Debug("recommendation ranked",
		zap.Int("catalog", len(ranked)),
		zap.Int("returned", len(filtered)),
		zap.Int("top_n", topN),
	)

	if req.Explain {
		a.explain(ctx, req.Profile, rec)
	}

	a.metrics.RecordRecommendation(len(rec.Matches), time.Since(start))
	return rec, nil
}

func (a *Advisor) explain(ctx context.Context, p *profile.Profile, rec *Recommendation) {
	switch {
	case a.explainer == nil:
		rec.ExplanationError = "ai explanations are disabled"
		a.metrics.RecordExplanation(metrics.ExplanationSkipped)
		return
	case len(rec.Matches) == 0:
		rec.ExplanationError = "no matches to explain"
		a.metrics.RecordExplanation(metrics.ExplanationSkipped)
		return
	}

	explanation, err := a.explainer.Explain(ctx, p, rec.Matches)
	if err != nil {
		a.logger.Warn("AI explanation failed", zap.Error(err))
		rec.ExplanationError = err.Error()
		a.metrics.RecordExplanation(metrics.ExplanationError)
		return
	}

	rec.Explanation = explanation
	a.metrics.RecordExplanation(metrics.ExplanationOK)
}

func (a *Advisor) merge(override Overrides) filtering.Config {
	cfg := a.filters
	if override.MinScore != nil {
		cfg.MinScore = *override.MinScore
	}
	if len(override.Categories) > 0 {
		cfg.Categories = override.Categories
	}
	if len(override.ExcludeIDs) > 0 {
		cfg.ExcludeIDs = append(append([]string(nil), cfg.ExcludeIDs...), override.ExcludeIDs...)
	}
	if override.ExcludeFile != "" {
		cfg.ExcludeFile = override.ExcludeFile
	}
	return cfg
}

func (a *Advisor) Engine() *matching.Engine { return a.engine }

func (a *Advisor) DefaultTopN() int { return a.topN }
