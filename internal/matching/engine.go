// Package matching ranks catalog careers against a psychometric profile.
//
// Everything here is pure: no I/O, no randomness and no shared mutable state,
// so an Engine can serve concurrent callers without locking.
package matching

import (
	"cmp"
	"math"
	"slices"

	"github.com/spigell/career-matcher/internal/catalog"
	"github.com/spigell/career-matcher/internal/profile"
)

// MatchLevel is the qualitative label derived from a final score.
type MatchLevel string

const (
	LevelExcellent MatchLevel = "Excellent Match"
	LevelGood      MatchLevel = "Good Match"
	LevelFair      MatchLevel = "Fair Match"
	LevelLow       MatchLevel = "Low Match"
)

// LevelFor maps a rounded score to its match level. Thresholds are inclusive
// lower bounds.
func LevelFor(score int) MatchLevel {
	switch {
	case score >= 80:
		return LevelExcellent
	case score >= 65:
		return LevelGood
	case score >= 50:
		return LevelFair
	default:
		return LevelLow
	}
}

type Breakdown struct {
	HollandScore int `json:"hollandScore"`
	BigFiveScore int `json:"bigFiveScore"`
}

// Result is one scored career.
type Result struct {
	catalog.Career
	Score      int        `json:"score"`
	MatchLevel MatchLevel `json:"matchLevel"`
	Breakdown  Breakdown  `json:"breakdown"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy replaces the default scoring policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// Engine scores careers from a fixed catalog.
type Engine struct {
	catalog *catalog.Catalog
	policy  Policy
}

func New(c *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: c,
		policy:  DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() Policy { return e.policy }

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// ScoreCareer scores a single career with the engine policy.
func (e *Engine) ScoreCareer(bigFive, holland profile.Scores, career catalog.Career) Result {
	return scoreCareer(e.policy, bigFive, holland, career)
}

// Match scores the whole catalog, orders it by descending score keeping
// catalog order for ties, and returns at most topN results. A non-positive
// topN returns every career.
func (e *Engine) Match(bigFive, holland profile.Scores, topN int) []Result {
	return match(e.policy, scoreCareer, bigFive, holland, e.catalog.Careers(), topN)
}

// ScoreCareer scores a career with DefaultPolicy.
func ScoreCareer(bigFive, holland profile.Scores, career catalog.Career) Result {
	return scoreCareer(DefaultPolicy(), bigFive, holland, career)
}

// MatchCareers ranks careers with DefaultPolicy.
func MatchCareers(bigFive, holland profile.Scores, careers []catalog.Career, topN int) []Result {
	return match(DefaultPolicy(), scoreCareer, bigFive, holland, careers, topN)
}

type scorer func(p Policy, bigFive, holland profile.Scores, career catalog.Career) Result

func match(p Policy, score scorer, bigFive, holland profile.Scores, careers []catalog.Career, topN int) []Result {
	results := make([]Result, 0, len(careers))
	for _, career := range careers {
		results = append(results, safeScore(score, p, bigFive, holland, career))
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results
}

// safeScore keeps one bad entry from aborting the batch: it scores 0.
func safeScore(score scorer, p Policy, bigFive, holland profile.Scores, career catalog.Career) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Career: career, Score: 0, MatchLevel: LevelFor(0)}
		}
	}()
	return score(p, bigFive, holland, career)
}

func scoreCareer(p Policy, bigFive, holland profile.Scores, career catalog.Career) Result {
	h := hollandScore(p, holland, career.HollandCodes)
	b := bigFiveScore(p, bigFive, career.BigFiveRequirements)

	score := clamp(int(math.Round(h*p.HollandWeight + b*p.BigFiveWeight)))

	return Result{
		Career:     career,
		Score:      score,
		MatchLevel: LevelFor(score),
		Breakdown: Breakdown{
			HollandScore: clamp(int(math.Round(h))),
			BigFiveScore: clamp(int(math.Round(b))),
		},
	}
}

func hollandScore(p Policy, holland profile.Scores, codes []string) float64 {
	var sum, count int
	for _, code := range codes {
		v, ok := holland.Lookup(code)
		if !ok {
			if p.MissingHolland != FallbackNeutral {
				continue
			}
			v = neutralScore
		}
		sum += v
		count++
	}

	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

func bigFiveScore(p Policy, bigFive profile.Scores, requirements map[string]catalog.Level) float64 {
	var sum, count int
	for trait, level := range requirements {
		v, ok := bigFive.Lookup(trait)
		if !ok {
			if p.MissingBigFive != FallbackNeutral {
				continue
			}
			v = neutralScore
		}

		switch level {
		case catalog.LevelHigh:
			sum += v
		case catalog.LevelLow:
			sum += 100 - v
		}
		// neutral adds nothing but still counts
		count++
	}

	if count == 0 {
		return neutralScore
	}
	return float64(sum) / float64(count)
}

func clamp(v int) int {
	return profile.Clamp(v)
}
