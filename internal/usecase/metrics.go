package usecase

import (
	"sort"
	"time"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// Time-of-day buckets.
const (
	BucketMorning   = "morning"   // 05:00-11:59
	BucketAfternoon = "afternoon" // 12:00-16:59
	BucketEvening   = "evening"   // 17:00-20:59
	BucketNight     = "night"
)

// MetricsOptions configures aggregation.
type MetricsOptions struct {
	QuietStartHour int // Inclusive
	QuietEndHour   int // Exclusive; may be before start for overnight ranges
}

// DefaultMetricsOptions returns 22:00-06:00 quiet hours.
func DefaultMetricsOptions() MetricsOptions {
	return MetricsOptions{QuietStartHour: 22, QuietEndHour: 6}
}

// Aggregate computes metrics over events with timestamps in [start, end].
// Pure; tolerates empty input. Bucketing uses each event's own recorded
// zone offset, never the query's. Ties in the "most common" fields go to
// the label seen first in chronological order.
func Aggregate(events []domain.BehavioralEvent, start, end time.Time, opts MetricsOptions) domain.AggregatedMetrics {
	m := domain.AggregatedMetrics{
		Start:              start,
		End:                end,
		CategoryBreakdown:  map[string]int{},
		MoodBreakdown:      map[string]int{},
		TimeOfDayBreakdown: map[string]int{},
		DayOfWeekBreakdown: map[string]int{},
	}

	apps := newCounter()
	categories := newCounter()
	moods := newCounter()

	var grants []time.Time
	var closedWithUsage, quiet int
	var usageTotal time.Duration
	var usageCount int

	for _, e := range inRange(events, start, end) {
		switch e.Kind {
		case domain.EventUnblockGranted:
			// An extension lengthens a window already counted
			if e.Extended {
				continue
			}
			m.TotalUnblocks++
			switch e.PurchaseType {
			case domain.PurchasePlanned:
				m.PlannedUnblocks++
			case domain.PurchaseImpulse:
				m.ImpulseUnblocks++
			}
			if e.Category != "" {
				m.CategoryBreakdown[e.Category]++
				categories.add(e.Category)
			}
			if e.Mood != "" {
				m.MoodBreakdown[e.Mood]++
				moods.add(e.Mood)
			}
			if e.AppName != "" {
				apps.add(e.AppName)
			}
			m.TimeOfDayBreakdown[TimeOfDay(e.Timestamp)]++
			m.DayOfWeekBreakdown[e.Timestamp.Weekday().String()]++
			if opts.inQuietHours(e.Timestamp) {
				quiet++
			}
			grants = append(grants, e.Timestamp)

		case domain.EventUnblockClosed:
			if e.UsageOccurred {
				closedWithUsage++
			}

		case domain.EventUsageSessionClosed, domain.EventShoppingSessionEnded:
			usageTotal += e.Duration
			usageCount++

		case domain.EventPurchaseIntentRecorded:
			m.PurchasesLogged++
			m.TotalAmount += e.Amount
		}
	}

	m.QuietHoursPercent = percent(quiet, m.TotalUnblocks)
	m.UsageRate = percent(closedWithUsage, m.TotalUnblocks)
	if len(grants) >= 2 {
		span := grants[len(grants)-1].Sub(grants[0])
		m.AvgMinutesBetweenUnblocks = span.Minutes() / float64(len(grants)-1)
	}
	if usageCount > 0 {
		m.AvgUsageSeconds = usageTotal.Seconds() / float64(usageCount)
	}
	m.MostRequestedApp = apps.top()
	m.MostCommonCategory = categories.top()
	m.MostCommonMood = moods.top()
	return m
}

// TimeOfDay returns the bucket for t in t's own location.
func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return BucketMorning
	case h >= 12 && h < 17:
		return BucketAfternoon
	case h >= 17 && h < 21:
		return BucketEvening
	default:
		return BucketNight
	}
}

func (o MetricsOptions) inQuietHours(t time.Time) bool {
	h := t.Hour()
	if o.QuietStartHour == o.QuietEndHour {
		return false
	}
	if o.QuietStartHour < o.QuietEndHour {
		return h >= o.QuietStartHour && h < o.QuietEndHour
	}
	return h >= o.QuietStartHour || h < o.QuietEndHour
}

// percent returns 100*n/total clamped to [0, 100], 0 when total is 0.
func percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := 100 * float64(n) / float64(total)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// inRange keeps events in [start, end] sorted chronologically without
// reordering equal timestamps. A zero bound is open.
func inRange(events []domain.BehavioralEvent, start, end time.Time) []domain.BehavioralEvent {
	out := make([]domain.BehavioralEvent, 0, len(events))
	for _, e := range events {
		if !start.IsZero() && e.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && e.Timestamp.After(end) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// counter tracks counts and first-seen order.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) top() string {
	best, bestCount := "", 0
	for _, label := range c.order {
		if c.counts[label] > bestCount {
			best, bestCount = label, c.counts[label]
		}
	}
	return best
}
