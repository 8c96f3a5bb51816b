// Package profile holds a person's psychometric scores and normalizes the
// loosely typed documents they arrive in.
package profile

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	MinScore = 0
	MaxScore = 100
)

// BigFiveTraits lists the Big Five trait codes in canonical order.
var BigFiveTraits = []string{"O", "C", "E", "A", "N"}

// HollandCodes lists the RIASEC codes in canonical order.
var HollandCodes = []string{"R", "I", "A", "S", "E", "C"}

// Scores maps an uppercase trait or RIASEC code to a percentage.
type Scores map[string]int

// Lookup returns the value for code clamped to [0,100].
func (s Scores) Lookup(code string) (int, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s[code]
	if !ok {
		return 0, false
	}
	return Clamp(v), true
}

// Profile is the pair of score mappings consumed by the matching engine.
type Profile struct {
	BigFive Scores `json:"bigFive"`
	Holland Scores `json:"holland"`
}

type document struct {
	BigFive map[string]any `mapstructure:"bigFive"`
	Holland map[string]any `mapstructure:"holland"`
}

// Decode builds a Profile from a generic document such as a decoded JSON body
// or viper settings. Keys are matched case-insensitively.
func Decode(input any) (*Profile, error) {
	if input == nil {
		return nil, fmt.Errorf("profile document is empty")
	}

	var doc document
	if err := mapstructure.Decode(input, &doc); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return &Profile{
		BigFive: Normalize(doc.BigFive),
		Holland: Normalize(doc.Holland),
	}, nil
}

// Normalize converts raw values into Scores. Keys are trimmed and uppercased,
// values that cannot be read as numbers become 0 and everything is clamped.
func Normalize(raw map[string]any) Scores {
	scores := make(Scores, len(raw))
	for key, value := range raw {
		code := strings.ToUpper(strings.TrimSpace(key))
		if code == "" {
			continue
		}
		scores[code] = Clamp(coerce(value))
	}
	return scores
}

// Clamp bounds v to [0,100].
func Clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

func coerce(value any) int {
	var f float64
	if err := mapstructure.WeakDecode(value, &f); err != nil {
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	if math.IsInf(f, 0) {
		if f > 0 {
			return MaxScore
		}
		return MinScore
	}
	return int(math.Round(math.Max(MinScore-1, math.Min(MaxScore+1, f))))
}

// Validate reports codes that the engine will never consult.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}

	var unknown []string
	for code := range p.BigFive {
		if !slices.Contains(BigFiveTraits, code) {
			unknown = append(unknown, "bigFive."+code)
		}
	}
	for code := range p.Holland {
		if !slices.Contains(HollandCodes, code) {
			unknown = append(unknown, "holland."+code)
		}
	}

	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("unknown score codes: %s", strings.Join(unknown, ", "))
	}
	return nil
}
