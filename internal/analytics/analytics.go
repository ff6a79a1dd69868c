// Package analytics shapes raw click events into the aggregates shown on the
// dashboard. Pure data shaping; no charting and no I/O.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/natively/natively-cli/internal/models"
)

// DayCount is the number of clicks recorded on one calendar day.
type DayCount struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Clicks int    `json:"clicks"`
}

// Summary aggregates a link's click events over the queried range.
type Summary struct {
	TotalClicks int        `json:"total_clicks"`
	Last24h     int        `json:"last_24h"`
	PerDay      []DayCount `json:"per_day"`
	AvgPerDay   float64    `json:"avg_per_day"`
}

// Summarize groups the click events by calendar day and derives the headline
// numbers. totalClicks is the link's all-time counter (server-maintained),
// which may exceed the events in the queried range.
func Summarize(clicks []models.ClickEvent, totalClicks int, now time.Time) Summary {
	byDay := make(map[string]int)
	cutoff := now.Add(-24 * time.Hour)
	last24h := 0

	for _, c := range clicks {
		byDay[c.ClickedAt.Local().Format("2006-01-02")]++
		if !c.ClickedAt.Before(cutoff) {
			last24h++
		}
	}

	perDay := make([]DayCount, 0, len(byDay))
	for date, count := range byDay {
		perDay = append(perDay, DayCount{Date: date, Clicks: count})
	}
	sort.Slice(perDay, func(i, j int) bool { return perDay[i].Date < perDay[j].Date })

	avg := 0.0
	if len(perDay) > 0 {
		// One decimal place, matching the dashboard display.
		avg = math.Round(float64(totalClicks)/float64(len(perDay))*10) / 10
	}

	return Summary{
		TotalClicks: totalClicks,
		Last24h:     last24h,
		PerDay:      perDay,
		AvgPerDay:   avg,
	}
}
