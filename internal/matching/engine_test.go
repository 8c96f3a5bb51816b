package matching

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/spigell/career-matcher/internal/catalog"
	"github.com/spigell/career-matcher/internal/profile"
)

func scientistCareer() catalog.Career {
	return catalog.Career{
		ID:           "scientist",
		Title:        "Scientist",
		HollandCodes: []string{"I", "R"},
		BigFiveRequirements: map[string]catalog.Level{
			"O": catalog.LevelHigh,
			"N": catalog.LevelLow,
		},
	}
}

func TestScoreCareer(t *testing.T) {
	t.Parallel()

	holland := profile.Scores{"I": 90, "R": 70, "A": 40}
	bigFive := profile.Scores{"O": 80, "N": 30}

	tests := []struct {
		name        string
		career      catalog.Career
		bigFive     profile.Scores
		holland     profile.Scores
		wantHolland int
		wantBigFive int
		wantScore   int
		wantLevel   MatchLevel
	}{
		{
			name:        "holland average over present codes",
			career:      catalog.Career{ID: "a", HollandCodes: []string{"I", "R"}},
			holland:     holland,
			wantHolland: 80,
			wantBigFive: 50,
			wantScore:   68,
			wantLevel:   LevelGood,
		},
		{
			name: "big five high and low requirements",
			career: catalog.Career{ID: "b", BigFiveRequirements: map[string]catalog.Level{
				"O": catalog.LevelHigh,
				"N": catalog.LevelLow,
			}},
			bigFive:     bigFive,
			wantHolland: 0,
			wantBigFive: 75,
			wantScore:   30,
			wantLevel:   LevelLow,
		},
		{
			name:        "combined weighting",
			career:      scientistCareer(),
			bigFive:     bigFive,
			holland:     holland,
			wantHolland: 80,
			wantBigFive: 75,
			wantScore:   78,
			wantLevel:   LevelGood,
		},
		{
			name:        "no big five requirements defaults to neutral",
			career:      catalog.Career{ID: "d", HollandCodes: []string{"I"}},
			bigFive:     bigFive,
			holland:     holland,
			wantHolland: 90,
			wantBigFive: 50,
			wantScore:   74,
			wantLevel:   LevelGood,
		},
		{
			name:        "absent holland codes score zero not neutral",
			career:      catalog.Career{ID: "e", HollandCodes: []string{"S", "E"}},
			bigFive:     bigFive,
			holland:     holland,
			wantHolland: 0,
			wantBigFive: 50,
			wantScore:   20,
			wantLevel:   LevelLow,
		},
		{
			name: "absent big five trait counts as 50",
			career: catalog.Career{ID: "f", HollandCodes: []string{"I"}, BigFiveRequirements: map[string]catalog.Level{
				"O": catalog.LevelHigh,
				"C": catalog.LevelHigh,
			}},
			bigFive:     profile.Scores{"O": 90},
			holland:     holland,
			wantHolland: 90,
			wantBigFive: 70,
			wantScore:   82,
			wantLevel:   LevelExcellent,
		},
		{
			name: "neutral requirement dilutes the average",
			career: catalog.Career{ID: "g", HollandCodes: []string{"I"}, BigFiveRequirements: map[string]catalog.Level{
				"O": catalog.LevelHigh,
				"C": catalog.LevelNeutral,
			}},
			bigFive:     profile.Scores{"O": 80, "C": 100},
			holland:     holland,
			wantHolland: 90,
			wantBigFive: 40,
			wantScore:   70,
			wantLevel:   LevelGood,
		},
		{
			name: "out of range values are clamped",
			career: catalog.Career{ID: "h", HollandCodes: []string{"I", "R"}, BigFiveRequirements: map[string]catalog.Level{
				"N": catalog.LevelLow,
			}},
			bigFive:     profile.Scores{"N": -40},
			holland:     profile.Scores{"I": 150, "R": 100},
			wantHolland: 100,
			wantBigFive: 100,
			wantScore:   100,
			wantLevel:   LevelExcellent,
		},
		{
			name:        "empty profile",
			career:      scientistCareer(),
			wantHolland: 0,
			wantBigFive: 50,
			wantScore:   20,
			wantLevel:   LevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ScoreCareer(tt.bigFive, tt.holland, tt.career)

			if got.Breakdown.HollandScore != tt.wantHolland {
				t.Fatalf("holland: expected %d, got %d", tt.wantHolland, got.Breakdown.HollandScore)
			}
			if got.Breakdown.BigFiveScore != tt.wantBigFive {
				t.Fatalf("big five: expected %d, got %d", tt.wantBigFive, got.Breakdown.BigFiveScore)
			}
			if got.Score != tt.wantScore {
				t.Fatalf("score: expected %d, got %d", tt.wantScore, got.Score)
			}
			if got.MatchLevel != tt.wantLevel {
				t.Fatalf("level: expected %q, got %q", tt.wantLevel, got.MatchLevel)
			}
			if got.ID != tt.career.ID {
				t.Fatalf("expected result to carry career %q, got %q", tt.career.ID, got.ID)
			}
		})
	}
}

func TestLevelForThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  MatchLevel
	}{
		{100, LevelExcellent},
		{80, LevelExcellent},
		{79, LevelGood},
		{65, LevelGood},
		{64, LevelFair},
		{50, LevelFair},
		{49, LevelLow},
		{0, LevelLow},
	}

	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Fatalf("score %d: expected %q, got %q", tt.score, tt.want, got)
		}
	}
}

func syntheticCatalog() []catalog.Career {
	return []catalog.Career{
		{ID: "tie-1", HollandCodes: []string{"A"}},
		{ID: "top", HollandCodes: []string{"I"}, BigFiveRequirements: map[string]catalog.Level{"O": catalog.LevelHigh}},
		{ID: "tie-2", HollandCodes: []string{"A"}},
		{ID: "bottom", HollandCodes: []string{"C"}, BigFiveRequirements: map[string]catalog.Level{"O": catalog.LevelLow}},
		{ID: "tie-3", HollandCodes: []string{"A"}},
	}
}

func TestMatchCareersOrderingAndStability(t *testing.T) {
	bigFive := profile.Scores{"O": 90}
	holland := profile.Scores{"I": 95, "A": 60}

	results := MatchCareers(bigFive, holland, syntheticCatalog(), 10)

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}

	expected := []string{"top", "tie-1", "tie-2", "tie-3", "bottom"}
	if !reflect.DeepEqual(ids, expected) {
		t.Fatalf("expected order %v, got %v", expected, ids)
	}

	for i := 1; i < len(results); i++ {
		if results[i-1].Score < results[i].Score {
			t.Fatalf("results not sorted at %d: %d < %d", i, results[i-1].Score, results[i].Score)
		}
	}
}

func TestMatchCareersTruncation(t *testing.T) {
	t.Parallel()

	careers := syntheticCatalog()
	bigFive := profile.Scores{"O": 50}
	holland := profile.Scores{"A": 50}

	tests := []struct {
		topN int
		want int
	}{
		{topN: 1, want: 1},
		{topN: 3, want: 3},
		{topN: len(careers), want: len(careers)},
		{topN: 50, want: len(careers)},
		{topN: 0, want: len(careers)},
		{topN: -1, want: len(careers)},
	}

	for _, tt := range tests {
		if got := len(MatchCareers(bigFive, holland, careers, tt.topN)); got != tt.want {
			t.Fatalf("topN %d: expected %d results, got %d", tt.topN, tt.want, got)
		}
	}
}

func TestMatchCareersEmptyCatalog(t *testing.T) {
	results := MatchCareers(profile.Scores{"O": 50}, profile.Scores{"I": 50}, nil, 5)
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", results)
	}

	engine := New(catalog.New(nil))
	if got := engine.Match(nil, nil, 5); len(got) != 0 {
		t.Fatalf("expected no results from empty catalog, got %d", len(got))
	}
}

func TestMatchIsDeterministicAndBounded(t *testing.T) {
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	engine := New(c)

	profiles := []struct {
		bigFive profile.Scores
		holland profile.Scores
	}{
		{profile.Scores{"O": 80, "C": 70, "E": 30, "A": 60, "N": 20}, profile.Scores{"R": 20, "I": 90, "A": 70, "S": 40, "E": 30, "C": 60}},
		{profile.Scores{"O": 0, "C": 0, "E": 0, "A": 0, "N": 0}, profile.Scores{"R": 0, "I": 0, "A": 0, "S": 0, "E": 0, "C": 0}},
		{profile.Scores{"O": 100, "C": 100, "E": 100, "A": 100, "N": 100}, profile.Scores{"R": 100, "I": 100, "A": 100, "S": 100, "E": 100, "C": 100}},
		{profile.Scores{}, profile.Scores{"S": 85}},
	}

	for _, p := range profiles {
		first := engine.Match(p.bigFive, p.holland, 0)
		second := engine.Match(p.bigFive, p.holland, 0)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("match is not deterministic for %v / %v", p.bigFive, p.holland)
		}

		for _, r := range first {
			if r.Score < 0 || r.Score > 100 {
				t.Fatalf("score out of bounds for %s: %d", r.ID, r.Score)
			}
			h := engine.ScoreCareer(p.bigFive, p.holland, r.Career)
			if h.Score != r.Score {
				t.Fatalf("match and score disagree for %s: %d != %d", r.ID, r.Score, h.Score)
			}
		}
	}
}

func TestWeightedTotal(t *testing.T) {
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}

	bigFive := profile.Scores{"O": 63, "C": 41, "E": 77, "A": 29, "N": 58}
	holland := profile.Scores{"R": 33, "I": 71, "A": 12, "S": 90, "E": 47, "C": 66}

	for _, career := range c.Careers() {
		h := hollandScore(DefaultPolicy(), holland, career.HollandCodes)
		b := bigFiveScore(DefaultPolicy(), bigFive, career.BigFiveRequirements)
		want := int(math.Round(0.6*h + 0.4*b))

		if got := ScoreCareer(bigFive, holland, career).Score; got != want {
			t.Fatalf("%s: expected %d, got %d (h=%.2f b=%.2f)", career.ID, want, got, h, b)
		}
	}
}

func TestPolicyVariants(t *testing.T) {
	t.Parallel()

	career := catalog.Career{
		ID:           "x",
		HollandCodes: []string{"S", "E"},
		BigFiveRequirements: map[string]catalog.Level{
			"O": catalog.LevelHigh,
			"C": catalog.LevelHigh,
		},
	}
	bigFive := profile.Scores{"O": 90}
	holland := profile.Scores{"S": 80}

	tests := []struct {
		name        string
		policy      Policy
		wantHolland int
		wantBigFive int
	}{
		{
			name:        "default",
			policy:      DefaultPolicy(),
			wantHolland: 80,
			wantBigFive: 70,
		},
		{
			name: "holland neutral fallback",
			policy: Policy{
				HollandWeight: 0.6, BigFiveWeight: 0.4,
				MissingHolland: FallbackNeutral, MissingBigFive: FallbackNeutral,
			},
			wantHolland: 65,
			wantBigFive: 70,
		},
		{
			name: "big five skip fallback",
			policy: Policy{
				HollandWeight: 0.6, BigFiveWeight: 0.4,
				MissingHolland: FallbackSkip, MissingBigFive: FallbackSkip,
			},
			wantHolland: 80,
			wantBigFive: 90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine := New(catalog.New([]catalog.Career{career}), WithPolicy(tt.policy))
			got := engine.ScoreCareer(bigFive, holland, career)

			if got.Breakdown.HollandScore != tt.wantHolland || got.Breakdown.BigFiveScore != tt.wantBigFive {
				t.Fatalf("expected %d/%d, got %d/%d", tt.wantHolland, tt.wantBigFive,
					got.Breakdown.HollandScore, got.Breakdown.BigFiveScore)
			}
		})
	}
}

func TestBigFiveSkipWithNothingLeftIsNeutral(t *testing.T) {
	p := DefaultPolicy()
	p.MissingBigFive = FallbackSkip

	got := bigFiveScore(p, profile.Scores{}, map[string]catalog.Level{"O": catalog.LevelHigh})
	if got != 50 {
		t.Fatalf("expected neutral 50, got %v", got)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	if err := (Policy{HollandWeight: 0.7, BigFiveWeight: 0.4}).Validate(); err == nil {
		t.Fatal("expected error when weights do not sum to 1")
	}
	if err := (Policy{HollandWeight: 1.2, BigFiveWeight: -0.2}).Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestParseFallback(t *testing.T) {
	if f, err := ParseFallback(" Neutral "); err != nil || f != FallbackNeutral {
		t.Fatalf("expected neutral, got %v (%v)", f, err)
	}
	if f, err := ParseFallback("skip"); err != nil || f != FallbackSkip {
		t.Fatalf("expected skip, got %v (%v)", f, err)
	}
	if _, err := ParseFallback("zero"); err == nil {
		t.Fatal("expected error for unknown fallback")
	}
}

func TestEngineIsSafeForConcurrentUse(t *testing.T) {
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	engine := New(c)
	bigFive := profile.Scores{"O": 70, "C": 60}
	holland := profile.Scores{"I": 80, "S": 40}
	want := engine.Match(bigFive, holland, 5)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := engine.Match(bigFive, holland, 5); !reflect.DeepEqual(got, want) {
				errs <- "concurrent match diverged"
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Fatal(msg)
	}
}

func TestMatchResultsDoNotShareCatalogState(t *testing.T) {
	engine := New(catalog.New([]catalog.Career{scientistCareer()}))
	bigFive := profile.Scores{"O": 80, "N": 30}
	holland := profile.Scores{"I": 90, "R": 70}

	first := engine.Match(bigFive, holland, 0)
	if first[0].Score != 78 {
		t.Fatalf("unexpected score: %d", first[0].Score)
	}

	first[0].HollandCodes[0] = "S"
	first[0].BigFiveRequirements["O"] = catalog.LevelLow

	if again := engine.Match(bigFive, holland, 0); again[0].Score != 78 {
		t.Fatalf("catalog changed through a result: 78 -> %d", again[0].Score)
	}
}

func TestMatchIsolatesFailingCareer(t *testing.T) {
	careers := []catalog.Career{
		{ID: "first", HollandCodes: []string{"I"}},
		{ID: "broken", HollandCodes: []string{"I"}},
		{ID: "last", HollandCodes: []string{"R"}},
	}
	panicking := func(p Policy, bigFive, holland profile.Scores, career catalog.Career) Result {
		if career.ID == "broken" {
			panic("corrupt entry")
		}
		return scoreCareer(p, bigFive, holland, career)
	}

	results := match(DefaultPolicy(), panicking, nil, profile.Scores{"I": 90, "R": 40}, careers, 0)
	if len(results) != 3 {
		t.Fatalf("expected every career to be ranked, got %d", len(results))
	}

	ids := []string{results[0].ID, results[1].ID, results[2].ID}
	if !reflect.DeepEqual(ids, []string{"first", "last", "broken"}) {
		t.Fatalf("unexpected order: %v", ids)
	}

	broken := results[2]
	if broken.Score != 0 || broken.MatchLevel != LevelLow || broken.Breakdown != (Breakdown{}) {
		t.Fatalf("expected failing career to score 0, got %+v", broken)
	}
}
