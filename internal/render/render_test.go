package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/crawldash/internal/model"
	"github.com/kalambet/crawldash/internal/session"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "just text", "just text"},
		{"tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"entities", "Fish &amp; chips &lt;3", "Fish & chips <3"},
		{"whitespace", "  a\n\n\tb   c ", "a b c"},
		{"blocks", "<li>one</li><li>two</li>", "one two"},
		{"script", "<script>alert(1)</script>kept<style>p{}</style>", "kept"},
		{"br", "line<br/>next", "line next"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"hello world", 6, "hello…"},
		{"héllo wörld", 4, "hél…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSitesTable(t *testing.T) {
	var buf bytes.Buffer
	err := Sites(&buf, []model.Site{
		{ID: 1, Name: "Site A", URL: "http://a.com", SiteType: model.SiteNews, IsActive: true},
		{ID: 2, Name: "Site B", URL: "http://b.com", IsActive: false},
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "news") || !strings.HasSuffix(lines[1], "active") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "inactive") || !strings.Contains(lines[2], "-") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestTablesKeepUnknownValues(t *testing.T) {
	var buf bytes.Buffer
	Sites(&buf, []model.Site{{ID: 1, Name: "Shop", URL: "http://shop.com", SiteType: "ecommerce"}})
	Keywords(&buf, []model.Keyword{{ID: 2, Keyword: "go", Category: "sports", Priority: 42}})
	out := buf.String()
	for _, want := range []string{"ecommerce", "sports", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTasksTableUsesLabels(t *testing.T) {
	var buf bytes.Buffer
	Tasks(&buf, []model.Task{
		{ID: 1, Name: "Daily", Frequency: model.Daily, SiteIDs: []int64{1, 2}, KeywordIDs: []int64{3}, IsActive: true},
		{ID: 2, Name: "Odd", Frequency: "PT15M"},
	})
	out := buf.String()
	for _, want := range []string{"daily", "PT15M", "inactive"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResultsTableStripsSummary(t *testing.T) {
	var buf bytes.Buffer
	Results(&buf, []model.Result{{
		ID: 1, Title: "Go <em>2</em>", URL: "http://a.com/go", KeywordMatched: "go",
		Summary:   "<p>Big   news</p>",
		CrawledAt: model.Timestamp{Time: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
	}})
	out := buf.String()
	if strings.Contains(out, "<") {
		t.Errorf("markup leaked into output:\n%s", out)
	}
	if !strings.Contains(out, "Big news") || !strings.Contains(out, "Go 2") {
		t.Errorf("output = \n%s", out)
	}
}

func TestDashboard(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := Dashboard(&buf, session.Dashboard{
		TotalTasks: 2, TotalResults: 7, ResultsToday: 4,
		Recent: []model.Result{{ID: 1, Title: "First", URL: "http://a.com/1", KeywordMatched: "go", CrawledAt: model.Timestamp{Time: now}}},
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Total tasks:", "7", "Crawled today (2024-05-02):", "First", `matched "go"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	Dashboard(&buf, session.Dashboard{}, now)
	if !strings.Contains(buf.String(), "No results yet.") {
		t.Errorf("empty dashboard = %q", buf.String())
	}
}
