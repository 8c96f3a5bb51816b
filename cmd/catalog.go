package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/career-matcher/internal/catalog"
	"github.com/spigell/career-matcher/internal/logger"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the career catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every career in the catalog",
	Run: func(_ *cobra.Command, _ []string) {
		withCatalog(func(c *catalog.Catalog, _ *zap.Logger) {
			renderCatalog(os.Stdout, c)
		})
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for malformed or duplicate entries",
	Run: func(_ *cobra.Command, _ []string) {
		withCatalog(func(c *catalog.Catalog, logger *zap.Logger) {
			if err := c.Validate(); err != nil {
				for _, line := range strings.Split(err.Error(), "\n") {
					fmt.Fprintln(os.Stderr, line)
				}
				logger.Fatal("catalog is invalid", zap.Int("careers", c.Len()))
			}
			logger.Info("catalog is valid", zap.Int("careers", c.Len()))
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogValidateCmd)

	catalogCmd.PersistentFlags().String("catalog", "", "catalog file (default is the embedded catalog)")
	viper.BindPFlag("catalog.path", catalogCmd.PersistentFlags().Lookup("catalog"))
}

func withCatalog(fn func(*catalog.Catalog, *zap.Logger)) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	c, err := catalog.Load(config.Catalog.Path)
	if err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}

	fn(c, logger)
}

func renderCatalog(w io.Writer, c *catalog.Catalog) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tHOLLAND\tBIG FIVE")
	for _, career := range c.Careers() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			career.ID, career.Title, career.Category, strings.Join(career.HollandCodes, ""), formatRequirements(career.BigFiveRequirements))
	}
	tw.Flush()
}

// formatRequirements renders requirements in canonical trait order, e.g. "O+ C+ N-".
func formatRequirements(reqs map[string]catalog.Level) string {
	var parts []string
	for _, trait := range []string{"O", "C", "E", "A", "N"} {
		level, ok := reqs[trait]
		if !ok {
			continue
		}
		switch level {
		case catalog.LevelHigh:
			parts = append(parts, trait+"+")
		case catalog.LevelLow:
			parts = append(parts, trait+"-")
		default:
			parts = append(parts, trait+"~")
		}
	}
	return strings.Join(parts, " ")
}
