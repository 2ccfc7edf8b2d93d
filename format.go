// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package noticeengine

import (
	"fmt"
	"io"
	"strings"

	"github.com/jshan/notice-engine/internal/scrape"
	"github.com/jshan/notice-engine/pkg/types"
)

// formatMatch writes the matched board header and its notice rows as a
// human-readable table.
func formatMatch(w io.Writer, best types.Link, listURL string, rows []scrape.Row) {
	fmt.Fprintf(w, "[MATCH] %s/%s -> %s\n\n", best.College, best.Dept, listURL)

	if len(rows) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-10s  %s\n", "Rank", "Title", "Date", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range rows {
		fmt.Fprintf(w, "%-4d  %-50s  %-10s  %s\n",
			i+1, truncate(r.Title, 50), r.PostedAt, r.URL)
	}

	fmt.Fprintf(w, "\n%d notices\n", len(rows))
}

// truncate shortens s to at most max runes, ellipsized. Korean titles are
// multi-byte, so this counts runes rather than bytes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
