package filtering

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-matcher/internal/matching"
	"github.com/spigell/career-matcher/internal/profile"
)

// toggle carries the enable switch and last run statistics shared by every filter.
type toggle struct {
	disabled bool
	reason   string
	last     *Step
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) record(s Step) { t.last = &s }

func (t *toggle) status(name string, details map[string]string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason, Details: details, Step: t.last}
}

type minScoreFilter struct {
	toggle
	min int
}

// NewMinScore creates a filter that removes careers scoring below the configured minimum.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.min = 0
	if cfg != nil {
		f.min = cfg.MinScore
	}
	if f.min < profile.MinScore || f.min > profile.MaxScore {
		return fmt.Errorf("minimum score %d is outside %d..%d", f.min, profile.MinScore, profile.MaxScore)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, results []matching.Result) ([]matching.Result, Step, error) {
	initial := len(results)
	if f.min == 0 {
		return results, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, removed := exclude(results, func(r matching.Result) bool { return r.Score < f.min })
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Debug("excluding careers below minimum score",
			zap.Int("min_score", f.min),
			zap.Strings("excluded_careers", removed),
			zap.Int("careers_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *minScoreFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"min_score": strconv.Itoa(f.min)})
}

type categoriesFilter struct {
	toggle
	categories []string
}

// NewCategories creates a filter that keeps only careers from the configured categories.
func NewCategories() Filter {
	return &categoriesFilter{}
}

func (f *categoriesFilter) Name() string { return "categories" }

func (f *categoriesFilter) Validate(cfg *Config) error {
	f.categories = nil
	if cfg == nil {
		return nil
	}
	for _, c := range cfg.Categories {
		if c = strings.TrimSpace(c); c != "" {
			f.categories = append(f.categories, strings.ToLower(c))
		}
	}
	return nil
}

func (f *categoriesFilter) Apply(_ context.Context, deps Deps, results []matching.Result) ([]matching.Result, Step, error) {
	initial := len(results)
	if len(f.categories) == 0 {
		return results, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, removed := exclude(results, func(r matching.Result) bool {
		return !slices.Contains(f.categories, strings.ToLower(r.Category))
	})
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Debug("excluding careers outside requested categories",
			zap.Strings("categories", f.categories),
			zap.Strings("excluded_careers", removed),
			zap.Int("careers_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *categoriesFilter) Status() Status {
	details := map[string]string{}
	if len(f.categories) > 0 {
		details["categories"] = strings.Join(f.categories, ",")
	}
	return f.status(f.Name(), details)
}

type excludeIDsFilter struct {
	toggle
	ids []string
}

// NewExcludeIDs creates a filter that removes careers listed in the config.
func NewExcludeIDs() Filter {
	return &excludeIDsFilter{}
}

func (f *excludeIDsFilter) Name() string { return "exclude_ids" }

func (f *excludeIDsFilter) Validate(cfg *Config) error {
	f.ids = nil
	if cfg != nil {
		f.ids = append(f.ids, cfg.ExcludeIDs...)
	}
	return nil
}

func (f *excludeIDsFilter) Apply(_ context.Context, deps Deps, results []matching.Result) ([]matching.Result, Step, error) {
	initial := len(results)
	if len(f.ids) == 0 {
		return results, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, removed := exclude(results, func(r matching.Result) bool { return slices.Contains(f.ids, r.ID) })
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Debug("excluding careers by id",
			zap.Strings("excluded_careers", removed),
			zap.Int("careers_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *excludeIDsFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		details["ids"] = strings.Join(f.ids, ",")
	}
	return f.status(f.Name(), details)
}

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes careers recorded in an exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, results []matching.Result) ([]matching.Result, Step, error) {
	initial := len(results)
	if f.path == "" {
		return results, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded, err := LoadExcluded(f.path)
	if err != nil {
		return results, Step{}, fmt.Errorf("getting excluded careers from file: %w", err)
	}

	ids := excluded.IDs()
	kept, removed := exclude(results, func(r matching.Result) bool { return slices.Contains(ids, r.ID) })
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Debug("excluding careers based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_careers", removed),
			zap.Int("careers_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return f.status(f.Name(), details)
}
