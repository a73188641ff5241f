// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the search-aggregator CLI and server.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/search-aggregator/internal/logging"
	"github.com/pdiddy/search-aggregator/internal/secrets"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// appConfig is the merged configuration, with secrets applied, loaded
// before any subcommand runs.
var appConfig types.Config

// rootCmd is the base command for the search-aggregator CLI.
var rootCmd = &cobra.Command{
	Use:   "search-aggregator",
	Short: "Federated search with per-session enrichment",
	Long: `search-aggregator dispatches queries to search providers (Elasticsearch,
Bing), merges in per-session bookmarks, annotations, ratings and page views,
and returns paginated result sets.

Run "serve" for the HTTP API, or use the search, get and providers
subcommands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(viper.GetViper())
		if err != nil {
			return err
		}
		logging.Init(logging.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: os.Stderr,
		})

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		if names := s.Names(); len(names) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", names)
		}
		applySecrets(&cfg, s)
		appConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./search-aggregator.yaml or ~/.config/search-aggregator/search-aggregator.yaml)")
}

func initConfig() {
	// .env is optional.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("search-aggregator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "search-aggregator"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("SEARCH_AGGREGATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
