// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/search-aggregator/internal/search"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig, slog.Default())
		if err != nil {
			return err
		}
		defer a.close()

		infos := a.svc.Providers()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return search.FormatJSON(infos, os.Stdout)
		}

		fmt.Fprintf(os.Stdout, "%-15s  %-8s  %-8s  %s\n", "Provider", "Feedback", "ByID", "Verticals")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 60))
		for _, info := range infos {
			fmt.Fprintf(os.Stdout, "%-15s  %-8t  %-8t  %s\n",
				info.Name, info.Capabilities.RelevanceFeedback, info.Capabilities.GetByID,
				strings.Join(info.Verticals, ", "))
		}
		return nil
	},
}

func init() {
	providersCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(providersCmd)
}
