package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
	"github.com/eliteGoblin/focusd/appgate/internal/usecase"
)

const dayLayout = "2006-01-02"

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Summarize unblock and purchase behavior",
	Long:  `Aggregates the event logs over a date range (default: the last 30 days).`,
	RunE:  withApp(runMetrics),
}

var (
	metricsFrom string
	metricsTo   string
	metricsJSON bool
)

func init() {
	metricsCmd.Flags().StringVar(&metricsFrom, "from", "", "First day, YYYY-MM-DD")
	metricsCmd.Flags().StringVar(&metricsTo, "to", "", "Last day, YYYY-MM-DD (inclusive)")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(a *app, cmd *cobra.Command, args []string) error {
	start, end, err := metricsRange(metricsFrom, metricsTo, time.Now())
	if err != nil {
		return err
	}

	events, err := a.recorder.Events(cmd.Context(), start, end)
	if err != nil {
		return err
	}
	m := usecase.Aggregate(events, start, end, usecase.MetricsOptions{
		QuietStartHour: a.cfg.Metrics.QuietStartHour,
		QuietEndHour:   a.cfg.Metrics.QuietEndHour,
	})

	if metricsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	printMetrics(m)
	return nil
}

// metricsRange turns the day flags into an inclusive local-time range.
func metricsRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	start := today.AddDate(0, 0, -29)
	if from != "" {
		day, err := time.ParseInLocation(dayLayout, from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: %w", from, err)
		}
		start = day
	}

	lastDay := today
	if to != "" {
		day, err := time.ParseInLocation(dayLayout, to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: %w", to, err)
		}
		lastDay = day
	}
	end := lastDay.AddDate(0, 0, 1).Add(-time.Nanosecond)

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
	}
	return start, end, nil
}

func printMetrics(m domain.AggregatedMetrics) {
	fmt.Printf("%s to %s\n\n", m.Start.Format(dayLayout), m.End.Format(dayLayout))
	fmt.Printf("Unblocks:           %d (planned %d, impulse %d)\n", m.TotalUnblocks, m.PlannedUnblocks, m.ImpulseUnblocks)
	fmt.Printf("Quiet hours:        %.1f%%\n", m.QuietHoursPercent)
	fmt.Printf("Windows used:       %.1f%%\n", m.UsageRate)
	fmt.Printf("Avg between grants: %.1f min\n", m.AvgMinutesBetweenUnblocks)
	fmt.Printf("Avg session:        %.0f s\n", m.AvgUsageSeconds)
	fmt.Printf("Purchases logged:   %d (total %.2f)\n", m.PurchasesLogged, m.TotalAmount)

	if m.MostRequestedApp != "" {
		fmt.Printf("Most requested app: %s\n", m.MostRequestedApp)
	}
	if m.MostCommonCategory != "" {
		fmt.Printf("Top category:       %s\n", m.MostCommonCategory)
	}
	if m.MostCommonMood != "" {
		fmt.Printf("Top mood:           %s\n", m.MostCommonMood)
	}

	printBreakdown("Time of day", m.TimeOfDayBreakdown)
	printBreakdown("Day of week", m.DayOfWeekBreakdown)
	printBreakdown("Category", m.CategoryBreakdown)
	printBreakdown("Mood", m.MoodBreakdown)
}

func printBreakdown(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Printf("\n%s:\n", title)
	for _, label := range labels {
		fmt.Printf("  %-12s %d\n", label, counts[label])
	}
}
