// Package render formats collections and the dashboard for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kalambet/crawldash/internal/model"
	"github.com/kalambet/crawldash/internal/session"
)

// SummaryWidth bounds the summary column of the results table.
const SummaryWidth = 60

const timeLayout = "2006-01-02 15:04"

// ActiveLabel renders an is_active flag.
func ActiveLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func formatTime(ts *model.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(timeLayout)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Sites writes the sites table.
func Sites(w io.Writer, sites []model.Site) error {
	tw := newTable(w, "ID", "NAME", "URL", "TYPE", "STATUS")
	for _, s := range sites {
		row(tw, s.ID, s.Name, s.URL, orDash(string(s.SiteType)), ActiveLabel(s.IsActive))
	}
	return tw.Flush()
}

// Keywords writes the keywords table.
func Keywords(w io.Writer, keywords []model.Keyword) error {
	tw := newTable(w, "ID", "KEYWORD", "CATEGORY", "PRIORITY", "STATUS")
	for _, k := range keywords {
		priority := "-"
		if k.Priority != 0 {
			priority = fmt.Sprint(k.Priority)
		}
		row(tw, k.ID, k.Keyword, orDash(string(k.Category)), priority, ActiveLabel(k.IsActive))
	}
	return tw.Flush()
}

// Tasks writes the tasks table with human frequency labels.
func Tasks(w io.Writer, tasks []model.Task) error {
	tw := newTable(w, "ID", "NAME", "FREQUENCY", "SITES", "KEYWORDS", "LAST RUN", "STATUS")
	for _, t := range tasks {
		row(tw, t.ID, t.Name, t.Frequency.Label(), len(t.SiteIDs), len(t.KeywordIDs),
			formatTime(t.LastRun), ActiveLabel(t.IsActive))
	}
	return tw.Flush()
}

// Results writes the results table. Summaries are stripped of markup.
func Results(w io.Writer, results []model.Result) error {
	tw := newTable(w, "ID", "TITLE", "KEYWORD", "CRAWLED", "URL", "SUMMARY")
	for _, r := range results {
		crawled := r.CrawledAt
		row(tw, r.ID, Truncate(StripHTML(r.Title), 50), orDash(r.KeywordMatched),
			formatTime(&crawled), r.URL, orDash(Snippet(r.Summary, SummaryWidth)))
	}
	return tw.Flush()
}

// Dashboard writes the summary cards followed by the recent results.
func Dashboard(w io.Writer, d session.Dashboard, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total tasks:\t%d\n", d.TotalTasks)
	fmt.Fprintf(tw, "Total results:\t%d\n", d.TotalResults)
	fmt.Fprintf(tw, "Crawled today (%s):\t%d\n", now.Format("2006-01-02"), d.ResultsToday)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if len(d.Recent) == 0 {
		_, err := fmt.Fprintln(w, "No results yet.")
		return err
	}
	fmt.Fprintln(w, "Recent results:")
	for _, r := range d.Recent {
		fmt.Fprintf(w, "  %s  %s\n", r.CrawledAt.Local().Format(timeLayout), Truncate(StripHTML(r.Title), 70))
		if kw := strings.TrimSpace(r.KeywordMatched); kw != "" {
			fmt.Fprintf(w, "      matched %q  %s\n", kw, r.URL)
		} else {
			fmt.Fprintf(w, "      %s\n", r.URL)
		}
	}
	return nil
}
