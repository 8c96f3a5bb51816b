package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/career-matcher/internal/advisor"
	"github.com/spigell/career-matcher/internal/ai"
	"github.com/spigell/career-matcher/internal/filtering"
	"github.com/spigell/career-matcher/internal/logger"
	"github.com/spigell/career-matcher/internal/matching"
	"github.com/spigell/career-matcher/internal/profile"
)

const (
	PromptBack                = "back"
	PromptExit                = "Exit"
	PromptExplain             = "Explain the ranking with AI"
	PromptAppendToExcludeFile = "Append shown careers to exclude file"
	PromptResultsToFile       = "Dump results to file"
)

var errExit = errors.New("exit requested")

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank careers for a Big Five and Holland profile",
	Example: `  career-matcher match --profile me.yaml --top 5
  career-matcher match -p me.json --category technology --explain`,
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("profile", "p", "", "profile file (yaml or json) with bigFive and holland sections")
	matchCmd.Flags().IntP("top", "n", advisor.DefaultTopN, "number of careers to show")
	matchCmd.Flags().Bool("explain", false, "ask the AI provider to explain the ranking")
	matchCmd.Flags().BoolP("interactive", "i", false, "browse the results interactively")
	matchCmd.Flags().Int("min-score", 0, "drop careers scoring below this value")
	matchCmd.Flags().StringSlice("category", nil, "keep only careers from these categories")
	matchCmd.Flags().StringSlice("exclude", nil, "career ids to leave out")
	matchCmd.Flags().StringP("exclude-file", "e", "", "file with dismissed careers to leave out. Default is unset.")
	matchCmd.Flags().StringP("output", "o", "table", "output format: table or json")

	matchCmd.MarkFlagRequired("profile")

	viper.BindPFlag("matching.top-n", matchCmd.Flags().Lookup("top"))
	viper.BindPFlag("filters.min-score", matchCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("filters.categories", matchCmd.Flags().Lookup("category"))
	viper.BindPFlag("filters.exclude-ids", matchCmd.Flags().Lookup("exclude"))
	viper.BindPFlag("exclude-file", matchCmd.Flags().Lookup("exclude-file"))
}

func match(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	explain, _ := cmd.Flags().GetBool("explain")
	interactive, _ := cmd.Flags().GetBool("interactive")
	output, _ := cmd.Flags().GetString("output")
	profilePath, _ := cmd.Flags().GetString("profile")

	if explain && !config.AI.Enabled {
		// --explain implies the provider is wanted for this run
		config.AI.Enabled = true
	}

	p, err := readProfile(profilePath)
	if err != nil {
		logger.Fatal("reading profile", zap.Error(err), zap.String("path", profilePath))
	}
	if err := p.Validate(); err != nil {
		logger.Warn("profile contains codes that are not scored", zap.Error(err))
	}

	adv, err := buildAdvisor(ctx, config, logger, nil)
	if err != nil {
		logger.Fatal("preparing the matcher", zap.Error(err))
	}

	rec, err := adv.Recommend(ctx, advisor.Request{
		Profile: p,
		TopN:    config.Matching.TopN,
		Explain: explain,
	})
	if err != nil {
		logger.Fatal("matching failed", zap.Error(err))
	}

	for _, status := range rec.Filters {
		if status.Step != nil && status.Step.Dropped > 0 {
			logger.Info("filter step",
				zap.String("name", status.Name),
				zap.Int("dropped", status.Step.Dropped),
				zap.Int("left", status.Step.Left),
			)
		}
	}
	if rec.ExplanationError != "" {
		logger.Warn("explanation unavailable", zap.String("reason", rec.ExplanationError))
	}

	if strings.EqualFold(output, "json") {
		if err := writeRecommendationJSON(os.Stdout, rec); err != nil {
			logger.Fatal("writing results", zap.Error(err))
		}
		return
	}

	if len(rec.Matches) == 0 {
		logger.Info("exiting", zap.String("reason", "no careers left after filters"))
		return
	}

	renderMatches(os.Stdout, rec.Matches)
	if rec.Explanation != nil {
		renderExplanation(os.Stdout, rec.Explanation)
	}

	if !interactive {
		return
	}

	if err := browse(ctx, adv, p, rec, config.ExcludeFile, logger); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("exiting", zap.Error(err))
	}
}

// readProfile loads a yaml or json profile through viper.
func readProfile(path string) (*profile.Profile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return profile.Decode(v.AllSettings())
}

func writeRecommendationJSON(w io.Writer, rec *advisor.Recommendation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func renderMatches(w io.Writer, matches []matching.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE\tSCORE\tLEVEL\tHOLLAND\tBIG FIVE")
	for i, m := range matches {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%d\t%d\n",
			i+1, m.ID, m.Title, m.Score, m.MatchLevel, m.Breakdown.HollandScore, m.Breakdown.BigFiveScore)
	}
	tw.Flush()
}

func renderExplanation(w io.Writer, e *ai.Explanation) {
	if e.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", e.Summary)
	}
	for _, insight := range e.Careers {
		fmt.Fprintf(w, "\n* %s: %s\n", insight.ID, insight.Reason)
		for _, step := range insight.NextSteps {
			fmt.Fprintf(w, "    - %s\n", step)
		}
	}
}

func renderCareer(w io.Writer, m matching.Result, insight *ai.CareerInsight) {
	fmt.Fprintf(w, "\n%s (%s)\n", m.Title, m.ID)
	fmt.Fprintf(w, "  score:     %d, %s (holland %d, big five %d)\n",
		m.Score, m.MatchLevel, m.Breakdown.HollandScore, m.Breakdown.BigFiveScore)
	fmt.Fprintf(w, "  holland:   %s\n", strings.Join(m.HollandCodes, ""))
	if m.Category != "" {
		fmt.Fprintf(w, "  category:  %s\n", m.Category)
	}
	if m.Education != "" {
		fmt.Fprintf(w, "  education: %s\n", m.Education)
	}
	if m.Salary != "" {
		fmt.Fprintf(w, "  salary:    %s\n", m.Salary)
	}
	if m.Description != "" {
		fmt.Fprintf(w, "  %s\n", m.Description)
	}
	if len(m.Skills) > 0 {
		fmt.Fprintf(w, "  skills:    %s\n", strings.Join(m.Skills, ", "))
	}
	for i, step := range m.Roadmap {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	if insight != nil {
		fmt.Fprintf(w, "  why:       %s\n", insight.Reason)
		for _, step := range insight.NextSteps {
			fmt.Fprintf(w, "    - %s\n", step)
		}
	}
}

func matchLabel(m matching.Result) string {
	return fmt.Sprintf("%s %s / %d / %s", m.ID, m.Title, m.Score, m.MatchLevel)
}

func findInsight(e *ai.Explanation, id string) *ai.CareerInsight {
	if e == nil {
		return nil
	}
	for i := range e.Careers {
		if e.Careers[i].ID == id {
			return &e.Careers[i]
		}
	}
	return nil
}

// browse lets the user inspect careers, request an explanation and dismiss
// the shown careers into the exclude file.
func browse(ctx context.Context, adv *advisor.Advisor, p *profile.Profile, rec *advisor.Recommendation, excludeFile string, logger *zap.Logger) error {
	for {
		if len(rec.Matches) == 0 {
			logger.Info("exiting", zap.String("reason", "no careers left"))
			return errExit
		}

		items := make([]string, 0, len(rec.Matches)+4)
		for _, m := range rec.Matches {
			items = append(items, matchLabel(m))
		}
		if rec.Explanation == nil {
			items = append(items, PromptExplain)
		}
		if excludeFile != "" {
			items = append(items, PromptAppendToExcludeFile)
		}
		items = append(items, PromptResultsToFile, PromptExit)

		careerPrompt := promptui.Select{
			Label: "Choose a career and press ENTER",
			Items: items,
			Size:  10,
		}

		_, selected, err := careerPrompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return errExit
			}
			return err
		}

		switch selected {
		case PromptExit:
			return errExit
		case PromptExplain:
			explained, err := adv.Recommend(ctx, advisor.Request{
				Profile: p,
				TopN:    len(rec.Matches),
				Explain: true,
			})
			if err != nil {
				return err
			}
			if explained.Explanation == nil {
				logger.Warn("explanation unavailable", zap.String("reason", explained.ExplanationError))
				continue
			}
			rec.Explanation = explained.Explanation
			renderExplanation(os.Stdout, rec.Explanation)
		case PromptAppendToExcludeFile:
			excluded, err := filtering.LoadExcluded(excludeFile)
			if err != nil {
				return err
			}

			excluded.Append(filtering.ToExcluded(rec.Matches, time.Now()))

			if err := excluded.ToFile(excludeFile); err != nil {
				return err
			}

			logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", len(rec.Matches)))
			rec.Matches = nil
		case PromptResultsToFile:
			filename, err := dumpToTmpFile(rec)
			if err != nil {
				return fmt.Errorf("dump results to file: %w", err)
			}
			logger.Info("dumping result to file", zap.String("filename", filename))
		default:
			id := strings.Split(selected, " ")[0]
			for _, m := range rec.Matches {
				if m.ID == id {
					renderCareer(os.Stdout, m, findInsight(rec.Explanation, id))
				}
			}
		}
	}
}

func dumpToTmpFile(rec *advisor.Recommendation) (string, error) {
	file, err := os.CreateTemp("", "careers_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := writeRecommendationJSON(file, rec); err != nil {
		return "", err
	}
	return file.Name(), nil
}
