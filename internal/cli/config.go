package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fanshield/doxwatch/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage doxwatch configuration",
	Long: `Manage doxwatch configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (DOXWATCH_*)
3. Config file (~/.doxwatch/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(loadConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println(string(yamlData))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.doxwatch/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		configDir := home + "/.doxwatch"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'doxwatch config show' to view it, or delete it first to recreate", configPath)
		}
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		header := "# Doxwatch configuration file\n" +
			"#\n" +
			"# Configuration hierarchy (highest to lowest priority):\n" +
			"#   1. CLI flags\n" +
			"#   2. Environment variables (DOXWATCH_*)\n" +
			"#   3. This config file\n" +
			"#   4. Built-in defaults\n" +
			"#\n" +
			"# API keys are read from the environment, never from this file:\n" +
			"#   export YOUTUBE_API_KEY=...\n" +
			"#   export OPENAI_API_KEY=...   (only for 'scan --llm')\n\n"

		if err := os.WriteFile(configPath, append([]byte(header), yamlData...), 0644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Printf("Created default configuration: %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// loadConfig builds the run configuration from defaults overlaid with any
// values set in the config file or DOXWATCH_* environment.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if viper.IsSet("queries") {
		cfg.Queries = viper.GetStringSlice("queries")
	}
	if viper.IsSet("output.dir") {
		cfg.Output.Dir = viper.GetString("output.dir")
	}
	if viper.IsSet("scoring.min_score") {
		cfg.Scoring.MinScore = viper.GetFloat64("scoring.min_score")
	}
	if viper.IsSet("scoring.title_max_len") {
		cfg.Scoring.TitleMaxLen = viper.GetInt("scoring.title_max_len")
	}
	if viper.IsSet("api.base_url") {
		cfg.API.BaseURL = viper.GetString("api.base_url")
	}
	if viper.IsSet("api.max_results") {
		cfg.API.MaxResults = viper.GetInt("api.max_results")
	}
	if viper.IsSet("api.max_pages_per_query") {
		cfg.API.MaxPages = viper.GetInt("api.max_pages_per_query")
	}
	if viper.IsSet("retry.attempts") {
		cfg.Retry.Attempts = viper.GetInt("retry.attempts")
	}
	if viper.IsSet("retry.backoff") {
		cfg.Retry.Backoff = viper.GetDuration("retry.backoff")
	}
	if viper.IsSet("rate_limit.requests_per_second") {
		cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("rate_limit.requests_per_second")
	}
	cfg.Output.Verbose = verbose

	return cfg
}
