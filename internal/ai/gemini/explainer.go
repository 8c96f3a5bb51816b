package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/career-matcher/internal/ai"
	"github.com/spigell/career-matcher/internal/logger"
	"github.com/spigell/career-matcher/internal/matching"
	"github.com/spigell/career-matcher/internal/profile"
	"github.com/spigell/career-matcher/internal/utils"
)

const (
	providerName        = "gemini"
	defaultMaxLogLength = 200
)

//go:embed prompt.md
var promptTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Explainer asks Gemini to narrate a ranking produced by the matching engine.
type Explainer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExplainer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Explainer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Explainer{
		generator: generator,
		logger:    logger.WithCommonFields(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// matchPayload is what the model sees of each result.
type matchPayload struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Category     string              `json:"category,omitempty"`
	HollandCodes []string            `json:"hollandCodes"`
	Score        int                 `json:"score"`
	MatchLevel   matching.MatchLevel `json:"matchLevel"`
	Breakdown    matching.Breakdown  `json:"breakdown"`
}

func (e *Explainer) Explain(ctx context.Context, p *profile.Profile, matches []matching.Result) (*ai.Explanation, error) {
	if p == nil {
		return nil, fmt.Errorf("profile is required")
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("nothing to explain: no matches")
	}

	profileJSON, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	payload := make([]matchPayload, 0, len(matches))
	for _, m := range matches {
		payload = append(payload, matchPayload{
			ID:           m.ID,
			Title:        m.Title,
			Category:     m.Category,
			HollandCodes: m.HollandCodes,
			Score:        m.Score,
			MatchLevel:   m.MatchLevel,
			Breakdown:    m.Breakdown,
		})
	}

	matchesJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal matches payload: %w", err)
	}

	prompt := buildPrompt(string(profileJSON), string(matchesJSON))

	e.logger.Debug("gemini generate content request",
		zap.Int("matches", len(matches)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	explanation, dropped, err := parseResponse(raw, matches)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		e.logger.Debug("dropping insights for careers outside the ranking", zap.Strings("ids", dropped))
	}

	explanation.Raw = raw
	explanation.Provider = providerName
	explanation.Model = e.generator.Model()
	return explanation, nil
}

func buildPrompt(profileJSON, matchesJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Profile:\n{{PROFILE_JSON}}\n\nMatches:\n{{MATCHES_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{PROFILE_JSON}}", profileJSON)
	prompt = strings.ReplaceAll(prompt, "{{MATCHES_JSON}}", matchesJSON)
	return prompt
}

// parseResponse decodes the model answer. Insights are kept in ranking order
// and only for ids present in matches; the ids it had to drop are returned.
func parseResponse(raw string, matches []matching.Result) (*ai.Explanation, []string, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, nil, fmt.Errorf("parse gemini response: %w", err)
	}

	insights := make(map[string]ai.CareerInsight)
	var dropped []string
	for _, item := range coerceList(data["careers"]) {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := coerceString(entry["id"])
		if id == "" {
			continue
		}
		if !containsID(matches, id) {
			dropped = append(dropped, id)
			continue
		}
		if _, seen := insights[id]; seen {
			continue
		}
		insights[id] = ai.CareerInsight{
			ID:        id,
			Reason:    coerceString(entry["reason"]),
			NextSteps: coerceStrings(entry["nextSteps"]),
		}
	}

	explanation := &ai.Explanation{Summary: coerceString(data["summary"])}
	for _, m := range matches {
		if insight, ok := insights[m.ID]; ok {
			explanation.Careers = append(explanation.Careers, insight)
		}
	}

	if explanation.Summary == "" && len(explanation.Careers) == 0 {
		return nil, dropped, fmt.Errorf("gemini response has neither summary nor career insights")
	}

	return explanation, dropped, nil
}

func containsID(matches []matching.Result, id string) bool {
	for _, m := range matches {
		if m.ID == id {
			return true
		}
	}
	return false
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceList(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case map[string]any:
		return []any{val}
	default:
		return nil
	}
}

func coerceStrings(v any) []string {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
		return nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
