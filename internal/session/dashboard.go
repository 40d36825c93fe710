package session

import (
	"time"

	"github.com/kalambet/crawldash/internal/model"
)

// RecentLimit is how many results the dashboard shows.
const RecentLimit = 5

// Dashboard is the overview computed from the mirrored collections.
type Dashboard struct {
	TotalTasks   int            `json:"total_tasks"`
	TotalResults int            `json:"total_results"`
	ResultsToday int            `json:"results_today"`
	Recent       []model.Result `json:"recent"`
}

// Dashboard summarizes the mirror as of now. "Today" is the calendar day of
// now in now's location. Recent holds the first results in server order.
func (c *Controller) Dashboard(now time.Time) Dashboard {
	results := c.results.snapshot()
	d := Dashboard{
		TotalTasks:   c.tasks.count(),
		TotalResults: len(results),
	}

	y, m, day := now.Date()
	for _, r := range results {
		ry, rm, rd := r.CrawledAt.In(now.Location()).Date()
		if ry == y && rm == m && rd == day {
			d.ResultsToday++
		}
	}

	n := min(len(results), RecentLimit)
	d.Recent = results[:n]
	return d
}
