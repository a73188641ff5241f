// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/search-aggregator/internal/search"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch a single document by id",
	Long: `Get retrieves the raw document stored under id from a provider that
supports lookup by id, and prints it as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		providerName, _ := cmd.Flags().GetString("provider")

		a, err := newApp(appConfig, slog.Default())
		if err != nil {
			return err
		}
		defer a.close()

		doc, err := a.svc.GetByID(context.Background(), args[0], providerName)
		if err != nil {
			return err
		}
		return search.FormatJSON(doc, os.Stdout)
	},
}

func init() {
	getCmd.Flags().String("provider", "", "provider name (default from search.default_provider)")

	rootCmd.AddCommand(getCmd)
}
