package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/natively/natively-cli/internal/analytics"
	"github.com/natively/natively-cli/internal/models"
)

var statsRange string

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <id>",
	Short: "Show click analytics for a link",
	Long: `Fetch a link's click events for the given time range and show per-day
counts plus headline numbers.

Examples:
  natively stats 123
  natively stats 123 --range month`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsRange, "range", "r", "week", "time range: day, week, month or all")
}

func runStats(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid link ID: %s (must be a number)", args[0])
	}

	rng := models.ClickRange(statsRange)
	switch rng {
	case models.RangeDay, models.RangeWeek, models.RangeMonth, models.RangeAll:
	default:
		return fmt.Errorf("invalid range: %s (must be day, week, month or all)", statsRange)
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}

	if err := a.manager.Load(cmd.Context()); err != nil {
		return errReported
	}

	var link *models.Link
	for _, l := range a.manager.Links() {
		if l.ID == id {
			found := l
			link = &found
			break
		}
	}
	if link == nil {
		return fmt.Errorf("no link with ID %d on your page", id)
	}

	clicks, err := a.client.Clicks(cmd.Context(), id, rng)
	if err != nil {
		return fmt.Errorf("failed to fetch click data: %w", err)
	}

	summary := analytics.Summarize(clicks, link.ClickCount, time.Now())

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Printf("Analytics for %q (%s)\n\n", link.Title, rng)
	fmt.Printf("Total clicks:   %d\n", summary.TotalClicks)
	fmt.Printf("Last 24 hours:  %d\n", summary.Last24h)
	fmt.Printf("Avg per day:    %.1f\n", summary.AvgPerDay)

	if len(summary.PerDay) > 0 {
		fmt.Println()
		for _, day := range summary.PerDay {
			fmt.Printf("%s  %d\n", day.Date, day.Clicks)
		}
	}
	return nil
}
