package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-matcher/internal/advisor"
	"github.com/spigell/career-matcher/internal/ai"
	"github.com/spigell/career-matcher/internal/ai/gemini"
	"github.com/spigell/career-matcher/internal/catalog"
	"github.com/spigell/career-matcher/internal/filtering"
	"github.com/spigell/career-matcher/internal/matching"
	"github.com/spigell/career-matcher/internal/metrics"
	"github.com/spigell/career-matcher/internal/secrets"
)

// loadCatalog reads the configured catalog and runs the integrity check.
// Problems are fatal only in strict mode.
func loadCatalog(cfg CatalogConfig, logger *zap.Logger) (*catalog.Catalog, error) {
	c, err := catalog.Load(cfg.Path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		if cfg.Strict {
			return nil, fmt.Errorf("catalog validation: %w", err)
		}
		logger.Warn("catalog has invalid entries", zap.Error(err))
	}

	source := cfg.Path
	if source == "" {
		source = "embedded"
	}
	logger.Debug("catalog loaded", zap.String("source", source), zap.Int("careers", c.Len()))

	return c, nil
}

func buildPolicy(cfg MatchingConfig) (matching.Policy, error) {
	missingHolland, err := matching.ParseFallback(cfg.MissingHolland)
	if err != nil {
		return matching.Policy{}, fmt.Errorf("matching.missing-holland: %w", err)
	}
	missingBigFive, err := matching.ParseFallback(cfg.MissingBigFive)
	if err != nil {
		return matching.Policy{}, fmt.Errorf("matching.missing-big-five: %w", err)
	}

	policy := matching.Policy{
		HollandWeight:  cfg.HollandWeight,
		BigFiveWeight:  cfg.BigFiveWeight,
		MissingHolland: missingHolland,
		MissingBigFive: missingBigFive,
	}
	if err := policy.Validate(); err != nil {
		return matching.Policy{}, fmt.Errorf("matching weights: %w", err)
	}
	return policy, nil
}

func filterConfig(config *Config) filtering.Config {
	return filtering.Config{
		MinScore:    config.Filters.MinScore,
		Categories:  config.Filters.Categories,
		ExcludeIDs:  config.Filters.ExcludeIDs,
		ExcludeFile: config.ExcludeFile,
	}
}

// buildAdvisor wires catalog, engine, filters and the optional explainer.
// An explainer that cannot be built is logged and left out.
func buildAdvisor(ctx context.Context, config *Config, logger *zap.Logger, m *metrics.Manager) (*advisor.Advisor, error) {
	c, err := loadCatalog(config.Catalog, logger)
	if err != nil {
		return nil, err
	}
	m.SetCatalogSize(c.Len())

	policy, err := buildPolicy(config.Matching)
	if err != nil {
		return nil, err
	}

	opts := []advisor.Option{
		advisor.WithFilters(filterConfig(config)),
		advisor.WithDefaultTopN(config.Matching.TopN),
		advisor.WithLogger(logger),
		advisor.WithMetrics(m),
	}

	if config.AI.Enabled {
		explainer, err := newExplainer(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("AI explanations disabled", zap.Error(err))
		} else {
			opts = append(opts, advisor.WithExplainer(explainer))
		}
	}

	return advisor.New(matching.New(c, matching.WithPolicy(policy)), opts...), nil
}

func newExplainer(ctx context.Context, cfg AIConfig, logger *zap.Logger) (ai.Explainer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	return gemini.NewExplainer(generator, logger, cfg.Gemini.MaxLogLength), nil
}
