package domain

import (
	"fmt"
	"time"
)

// SignalKind identifies an OS monitoring callback.
type SignalKind string

const (
	SignalIntervalStart    SignalKind = "interval_start"
	SignalIntervalEnd      SignalKind = "interval_end"
	SignalThresholdWarning SignalKind = "threshold_warning"
	SignalThresholdReached SignalKind = "threshold_reached"
)

// ParseSignalKind accepts both snake_case and kebab-case names.
func ParseSignalKind(s string) (SignalKind, error) {
	switch s {
	case "interval_start", "interval-start":
		return SignalIntervalStart, nil
	case "interval_end", "interval-end":
		return SignalIntervalEnd, nil
	case "threshold_warning", "threshold-warning":
		return SignalThresholdWarning, nil
	case "threshold_reached", "threshold-reached":
		return SignalThresholdReached, nil
	}
	return "", fmt.Errorf("unknown signal kind: %q", s)
}

// MonitoringSignal is delivered by the monitoring context. Never persisted.
type MonitoringSignal struct {
	Kind     SignalKind
	Activity string
	Event    string // Only set for threshold signals
}

// EventKind tags a BehavioralEvent.
type EventKind string

const (
	EventUnblockGranted         EventKind = "unblock_granted"
	EventUnblockClosed          EventKind = "unblock_closed"
	EventPurchaseIntentRecorded EventKind = "purchase_intent_recorded"
	EventUsageSessionClosed     EventKind = "usage_session_closed"
	EventShoppingSessionStarted EventKind = "shopping_session_started"
	EventShoppingSessionEnded   EventKind = "shopping_session_ended"
)

// BehavioralEvent is an immutable log record. Corrections are new events.
type BehavioralEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`
	WindowID  string    `json:"window_id,omitempty"`

	PurchaseType PurchaseType `json:"purchase_type,omitempty"`
	Category     string       `json:"category,omitempty"`
	Mood         string       `json:"mood,omitempty"`
	MoodNotes    string       `json:"mood_notes,omitempty"`
	Amount       float64      `json:"amount,omitempty"`
	AppName      string       `json:"app_name,omitempty"`
	AppIndex     *int         `json:"app_index,omitempty"`

	Duration      time.Duration `json:"duration,omitempty"`
	UsageOccurred bool          `json:"usage_occurred,omitempty"`
	Extended      bool          `json:"extended,omitempty"`
}

// IsUsageKind reports whether the event belongs in the usage-session log.
// Intent-bearing kinds go to the purchase-intent log.
func (k EventKind) IsUsageKind() bool {
	switch k {
	case EventUnblockClosed, EventUsageSessionClosed, EventShoppingSessionStarted, EventShoppingSessionEnded:
		return true
	}
	return false
}

// AggregatedMetrics is a recomputed-on-demand view over a slice of the log.
type AggregatedMetrics struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	TotalUnblocks   int `json:"total_unblocks"`
	PlannedUnblocks int `json:"planned_unblocks"`
	ImpulseUnblocks int `json:"impulse_unblocks"`

	CategoryBreakdown  map[string]int `json:"category_breakdown"`
	MoodBreakdown      map[string]int `json:"mood_breakdown"`
	TimeOfDayBreakdown map[string]int `json:"time_of_day_breakdown"`
	DayOfWeekBreakdown map[string]int `json:"day_of_week_breakdown"`

	QuietHoursPercent         float64 `json:"quiet_hours_percent"`
	UsageRate                 float64 `json:"usage_rate"`
	AvgMinutesBetweenUnblocks float64 `json:"avg_minutes_between_unblocks"`
	AvgUsageSeconds           float64 `json:"avg_usage_seconds"`

	MostRequestedApp   string `json:"most_requested_app,omitempty"`
	MostCommonCategory string `json:"most_common_category,omitempty"`
	MostCommonMood     string `json:"most_common_mood,omitempty"`

	PurchasesLogged int     `json:"purchases_logged"`
	TotalAmount     float64 `json:"total_amount"`
}
