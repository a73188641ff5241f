// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

// FormatTable writes a result set as a human-readable table to w.
func FormatTable(rs *types.ResultSet, w io.Writer) {
	if len(rs.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-24s  %-40s  %-3s  %-5s  %s\n",
		"Rank", "ID", "Source", "BM", "Views", "Name")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range rs.Results {
		bookmark, views := "", 0
		if m := r.Metadata; m != nil {
			switch {
			case m.Exclude:
				bookmark = "x"
			case m.Bookmark != nil && m.Bookmark.Starred:
				bookmark = "*"
			case m.Bookmark != nil:
				bookmark = "+"
			}
			views = m.Views
		}
		fmt.Fprintf(w, "%-4d  %-24s  %-40s  %-3s  %-5d  %s\n",
			i+1, truncate(r.Key(), 24), truncate(r.Source, 40), bookmark, views, truncate(r.Name, 30))
	}

	fmt.Fprintf(w, "\n%d of %d matches (%s)\n", len(rs.Results), rs.Matches, rs.ID)
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
