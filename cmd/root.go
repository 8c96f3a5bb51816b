package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/career-matcher/internal/advisor"
	"github.com/spigell/career-matcher/internal/matching"
)

const (
	app       = "career-matcher"
	envPrefix = "CAREER_MATCHER"
)

type Config struct {
	Catalog     CatalogConfig  `mapstructure:"catalog"`
	Matching    MatchingConfig `mapstructure:"matching"`
	Filters     FiltersConfig  `mapstructure:"filters"`
	ExcludeFile string         `mapstructure:"exclude-file"`
	Server      ServerConfig   `mapstructure:"server"`
	AI          AIConfig       `mapstructure:"ai"`
}

type CatalogConfig struct {
	Path   string `mapstructure:"path"`
	Strict bool   `mapstructure:"strict"`
}

type MatchingConfig struct {
	TopN           int     `mapstructure:"top-n"`
	HollandWeight  float64 `mapstructure:"holland-weight"`
	BigFiveWeight  float64 `mapstructure:"big-five-weight"`
	MissingHolland string  `mapstructure:"missing-holland"`
	MissingBigFive string  `mapstructure:"missing-big-five"`
}

type FiltersConfig struct {
	MinScore   int      `mapstructure:"min-score"`
	Categories []string `mapstructure:"categories"`
	ExcludeIDs []string `mapstructure:"exclude-ids"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type AIConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-matcher ranks careers against Big Five and Holland (RIASEC) test results",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setDefaults registers every key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.strict", false)
	v.SetDefault("matching.top-n", advisor.DefaultTopN)
	v.SetDefault("matching.holland-weight", matching.DefaultHollandWeight)
	v.SetDefault("matching.big-five-weight", matching.DefaultBigFiveWeight)
	v.SetDefault("matching.missing-holland", matching.FallbackSkip.String())
	v.SetDefault("matching.missing-big-five", matching.FallbackNeutral.String())
	v.SetDefault("filters.min-score", 0)
	v.SetDefault("filters.categories", []string{})
	v.SetDefault("filters.exclude-ids", []string{})
	v.SetDefault("exclude-file", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown-timeout", "10s")
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.gemini.max-log-length", 200)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional unless it was named explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
