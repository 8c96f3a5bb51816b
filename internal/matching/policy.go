package matching

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultHollandWeight = 0.6
	DefaultBigFiveWeight = 0.4

	neutralScore = 50
)

// Fallback decides how a score that is absent from the profile is treated.
type Fallback int

const (
	// FallbackSkip ignores absent codes. An axis with nothing left scores 0
	// for Holland and 50 for Big Five.
	FallbackSkip Fallback = iota
	// FallbackNeutral counts absent codes as 50.
	FallbackNeutral
)

// ParseFallback accepts "skip" or "neutral".
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip":
		return FallbackSkip, nil
	case "neutral":
		return FallbackNeutral, nil
	default:
		return FallbackSkip, fmt.Errorf("unknown fallback %q (expected skip or neutral)", s)
	}
}

func (f Fallback) String() string {
	if f == FallbackNeutral {
		return "neutral"
	}
	return "skip"
}

// Policy holds the tunable parts of the scoring function.
type Policy struct {
	HollandWeight  float64
	BigFiveWeight  float64
	MissingHolland Fallback
	MissingBigFive Fallback
}

// DefaultPolicy keeps the historical asymmetry: absent Holland codes are
// skipped while absent Big Five traits count as neutral.
func DefaultPolicy() Policy {
	return Policy{
		HollandWeight:  DefaultHollandWeight,
		BigFiveWeight:  DefaultBigFiveWeight,
		MissingHolland: FallbackSkip,
		MissingBigFive: FallbackNeutral,
	}
}

// Validate checks that weights are non-negative and sum to 1.
func (p Policy) Validate() error {
	if p.HollandWeight < 0 || p.BigFiveWeight < 0 {
		return fmt.Errorf("negative weight: holland=%.3f big five=%.3f", p.HollandWeight, p.BigFiveWeight)
	}
	if sum := p.HollandWeight + p.BigFiveWeight; math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", sum)
	}
	return nil
}
