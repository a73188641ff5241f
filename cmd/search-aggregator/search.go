// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/search-aggregator/internal/search"
	"github.com/pdiddy/search-aggregator/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a vertical through a provider",
	Long: `Search sends the query to a provider, applies the session's relevance
feedback and distribution-of-labour policies, enriches every result with
bookmarks, annotations, ratings and views, and prints the page.

Use --save to write the request and result set to a YAML file, and
--replay to run the request stored in such a file again.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	var req types.SearchRequest
	var err error
	if path, _ := cmd.Flags().GetString("replay"); path != "" {
		req, err = replayRequest(path, os.Stderr)
	} else {
		req, err = searchRequestFromFlags(cmd, args)
	}
	if err != nil {
		return err
	}

	a, err := newApp(appConfig, slog.Default())
	if err != nil {
		return err
	}
	defer a.close()

	rs, err := a.svc.Search(context.Background(), req)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteResultFile(path, req, rs); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d results to %s\n", len(rs.Results), path)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(rs, os.Stdout)
	}
	search.FormatTable(rs, os.Stdout)
	return nil
}

// replayRequest loads the request saved in a result file and reports what
// the earlier run returned to w.
func replayRequest(path string, w io.Writer) (types.SearchRequest, error) {
	rf, err := search.ReadResultFile(path)
	if err != nil {
		return types.SearchRequest{}, err
	}
	req, err := rf.Request.ToRequest()
	if err != nil {
		return types.SearchRequest{}, fmt.Errorf("result file %s: %w", path, err)
	}
	fmt.Fprintf(w, "Replaying %q (saved %s: %d of %d matches)\n",
		req.Query, rf.Summary.Timestamp.Format(time.RFC3339), rf.Summary.Returned, rf.Summary.Matches)
	return req, nil
}

func searchRequestFromFlags(cmd *cobra.Command, args []string) (types.SearchRequest, error) {
	if len(args) == 0 {
		return types.SearchRequest{}, fmt.Errorf("a query is required (or use --replay)")
	}
	vertical, _ := cmd.Flags().GetString("vertical")
	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")
	providerName, _ := cmd.Flags().GetString("provider")
	sessionID, _ := cmd.Flags().GetString("session")
	userID, _ := cmd.Flags().GetString("user")

	feedback, _ := cmd.Flags().GetString("feedback")
	rf, err := types.ParseRelevanceFeedback(feedback)
	if err != nil {
		return types.SearchRequest{}, err
	}
	labour, _ := cmd.Flags().GetString("labour")
	dl, err := types.ParseDistributionOfLabour(labour)
	if err != nil {
		return types.SearchRequest{}, err
	}

	return types.SearchRequest{
		Query:                strings.Join(args, " "),
		Vertical:             vertical,
		PageNumber:           page,
		ResultsPerPage:       perPage,
		SessionID:            sessionID,
		UserID:               userID,
		ProviderName:         providerName,
		RelevanceFeedback:    rf,
		DistributionOfLabour: dl,
	}, nil
}

func init() {
	searchCmd.Flags().String("vertical", "text", "vertical to search (e.g. text, social, web, news)")
	searchCmd.Flags().Int("page", 1, "page number, starting at 1")
	searchCmd.Flags().Int("per-page", 0, "results per page (default from search.results_per_page)")
	searchCmd.Flags().String("provider", "", "provider name (default from search.default_provider)")
	searchCmd.Flags().String("session", "", "session id for enrichment and feedback")
	searchCmd.Flags().String("user", "", "user id for enrichment and feedback")
	searchCmd.Flags().String("feedback", "false", "relevance feedback: false, individual, shared")
	searchCmd.Flags().String("labour", "false", "distribution of labour: false, unbookmarkedSoft, unbookmarkedOnly")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write the request and results to this YAML file")
	searchCmd.Flags().String("replay", "", "rerun the request stored in a result file written by --save")

	rootCmd.AddCommand(searchCmd)
}
