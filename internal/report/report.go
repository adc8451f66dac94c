// Package report turns search results and watcher state into user-facing
// artifacts: a plain-text report, a machine-readable export, and a CSV dump
// of the change history.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/raysh454/pagewatch/internal/search"
	"github.com/raysh454/pagewatch/internal/watcher"
)

// Caps for the detailed section of the text report. The structured export
// is never capped.
const (
	detailResultLimit = 20
	detailMatchLimit  = 3
	detailRadius      = 100
)

// Export is the machine-readable form of a search run. It echoes the query
// and options so a consumer can reproduce the search, and carries every
// match of every result without truncation.
type Export struct {
	Query        string          `json:"query"`
	Options      search.Options  `json:"options"`
	GeneratedAt  time.Time       `json:"generated_at"`
	TotalResults int             `json:"total_results"`
	TotalMatches int             `json:"total_matches"`
	Results      []search.Result `json:"results"`
}

// BuildExport assembles the structured export for results.
func BuildExport(results []search.Result, query string, opts search.Options, generatedAt time.Time) Export {
	total := 0
	for _, r := range results {
		total += r.MatchCount
	}
	if results == nil {
		results = []search.Result{}
	}
	return Export{
		Query:        query,
		Options:      opts,
		GeneratedAt:  generatedAt,
		TotalResults: len(results),
		TotalMatches: total,
		Results:      results,
	}
}

// BuildReport renders a human-readable text report: header, summary totals,
// a per-URL breakdown, and a detailed section limited to the first 20
// results with up to 3 matches each.
func BuildReport(results []search.Result, query string, generatedAt time.Time) string {
	var b strings.Builder

	totalMatches := 0
	urls := make([]string, 0)
	seen := make(map[string]bool)
	for _, r := range results {
		totalMatches += r.MatchCount
		if !seen[r.URL] {
			seen[r.URL] = true
			urls = append(urls, r.URL)
		}
	}

	b.WriteString("SEARCH REPORT\n")
	b.WriteString("=============\n\n")
	fmt.Fprintf(&b, "Search Query: %q\n", query)
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.Format(time.RFC3339))

	b.WriteString("SUMMARY\n")
	b.WriteString("-------\n")
	fmt.Fprintf(&b, "Total Matches: %d\n", totalMatches)
	fmt.Fprintf(&b, "URLs with Matches: %d\n", len(urls))
	fmt.Fprintf(&b, "Total Results: %d\n\n", len(results))

	b.WriteString("RESULTS BY URL\n")
	b.WriteString("--------------\n")
	for _, url := range urls {
		urlTotal := 0
		for _, r := range results {
			if r.URL == url {
				urlTotal += r.MatchCount
			}
		}
		fmt.Fprintf(&b, "\n%s\n", url)
		fmt.Fprintf(&b, "  Total Matches: %d\n", urlTotal)
		for _, r := range results {
			if r.URL != url {
				continue
			}
			fmt.Fprintf(&b, "  - %s: %d matches (%s)\n",
				sourceLabel(r.Source), r.MatchCount, r.Timestamp.Format(time.RFC3339))
		}
	}

	b.WriteString("\n\nDETAILED MATCHES\n")
	b.WriteString("================\n")

	detailed := results
	if len(detailed) > detailResultLimit {
		detailed = detailed[:detailResultLimit]
	}
	for _, r := range detailed {
		fmt.Fprintf(&b, "\nURL: %s\n", r.URL)
		fmt.Fprintf(&b, "Type: %s\n", r.Source)
		fmt.Fprintf(&b, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(&b, "Matches: %d\n", r.MatchCount)

		matches := r.Matches
		if len(matches) > detailMatchLimit {
			matches = matches[:detailMatchLimit]
		}
		for _, m := range matches {
			snippet := search.ContextWindow(r.Content, m, detailRadius)
			fmt.Fprintf(&b, "\nMatch: %q\n", m.Text)
			fmt.Fprintf(&b, "Context: %s\n", snippet.String())
		}
	}

	return b.String()
}

// sourceLabel maps a result source to its per-URL breakdown label.
func sourceLabel(src search.Source) string {
	switch src {
	case search.SourceCurrentSnapshot:
		return "Current"
	case search.SourceHistoricalOld:
		return "Historical (Old)"
	case search.SourceHistoricalNew:
		return "Historical (New)"
	default:
		return string(src)
	}
}

// HistoryCSV renders the change history as CSV, one row per change record,
// URLs in monitored order.
func HistoryCSV(st watcher.State) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"URL", "Timestamp", "Change Type", "Content Length (Old)", "Content Length (New)"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, url := range st.MonitoredURLs {
		for _, rec := range st.History[url] {
			row := []string{
				url,
				rec.Timestamp.Format(time.RFC3339),
				"Content Change",
				strconv.Itoa(len([]rune(rec.OldContent))),
				strconv.Itoa(len([]rune(rec.NewContent))),
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
