package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
	"github.com/eliteGoblin/focusd/appgate/internal/idgen"
)

// Intent is the user-supplied payload of a purchase-intent record.
type Intent struct {
	Type      domain.PurchaseType
	Category  string
	Mood      string
	MoodNotes string
	Amount    float64
	AppName   string
	AppIndex  *int
	WindowID  string
}

// Recorder appends behavioral events to the append-only logs.
// Events are never edited; corrections are new events.
type Recorder struct {
	store  domain.Store
	clock  domain.Clock
	newID  func() string
	logger *zap.Logger
}

// NewRecorder creates a recorder over store.
func NewRecorder(store domain.Store, clock domain.Clock, logger *zap.Logger) *Recorder {
	return NewRecorderWithDeps(store, clock, idgen.NewEvent, logger)
}

// NewRecorderWithDeps creates a recorder with an injectable ID source (for testing).
func NewRecorderWithDeps(store domain.Store, clock domain.Clock, newID func() string, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		clock:  clock,
		newID:  newID,
		logger: logger,
	}
}

// RecordIntent appends a purchase-intent event.
func (r *Recorder) RecordIntent(ctx context.Context, intent Intent) (domain.BehavioralEvent, error) {
	if !intent.Type.Valid() {
		return domain.BehavioralEvent{}, domain.ErrInvalidPurchase
	}
	if intent.Amount < 0 {
		return domain.BehavioralEvent{}, fmt.Errorf("amount cannot be negative: %v", intent.Amount)
	}
	return r.Append(ctx, domain.BehavioralEvent{
		Kind:         domain.EventPurchaseIntentRecorded,
		WindowID:     intent.WindowID,
		PurchaseType: intent.Type,
		Category:     intent.Category,
		Mood:         intent.Mood,
		MoodNotes:    intent.MoodNotes,
		Amount:       intent.Amount,
		AppName:      intent.AppName,
		AppIndex:     intent.AppIndex,
	})
}

// RecordUsageSession appends a usage-closed event.
func (r *Recorder) RecordUsageSession(ctx context.Context, appIndex int, duration time.Duration) (domain.BehavioralEvent, error) {
	if duration < 0 {
		return domain.BehavioralEvent{}, domain.ErrInvalidDuration
	}
	idx := appIndex
	return r.Append(ctx, domain.BehavioralEvent{
		Kind:          domain.EventUsageSessionClosed,
		AppIndex:      &idx,
		Duration:      duration,
		UsageOccurred: duration > 0,
	})
}

// Append stores one event, filling in ID and timestamp when missing.
// Timestamps are kept increasing per log through a small last-timestamp
// cell, so appending never reads the log itself. The first unblock_closed
// for a window claims a per-window cell; later ones are dropped and the
// claimed event returned, even when two processes race.
func (r *Recorder) Append(ctx context.Context, event domain.BehavioralEvent) (domain.BehavioralEvent, error) {
	if event.ID == "" {
		event.ID = r.newID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.clock.Now()
	}

	logKey := logFor(event.Kind)
	if last, ok := r.lastTimestamp(logKey); ok && !event.Timestamp.After(last) {
		event.Timestamp = last.Add(time.Millisecond)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return event, fmt.Errorf("failed to encode event: %w", err)
	}

	claimKey := ""
	if event.Kind == domain.EventUnblockClosed && event.WindowID != "" {
		claimKey = domain.KeyClosedWindowPrefix + event.WindowID
		won, err := r.store.SetIfAbsent(claimKey, data)
		if err != nil {
			return event, fmt.Errorf("failed to claim close of %s: %w", event.WindowID, err)
		}
		if !won {
			r.logger.Debug("duplicate window close dropped",
				zap.String("window_id", event.WindowID))
			return r.claimed(claimKey, event), nil
		}
	}

	if err := r.store.Append(logKey, data); err != nil {
		if claimKey != "" {
			// Release the claim so the next trigger path can record the close
			_ = r.store.Remove(claimKey)
		}
		return event, fmt.Errorf("failed to append to %s: %w", logKey, err)
	}

	stamp := []byte(event.Timestamp.Format(time.RFC3339Nano))
	if err := r.store.Set(logKey+domain.KeyLastTimestampSuffix, stamp); err != nil {
		r.logger.Warn("failed to update last timestamp", zap.String("log", logKey), zap.Error(err))
	}

	r.logger.Info("event recorded",
		zap.String("id", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.String("window_id", event.WindowID),
		zap.Time("timestamp", event.Timestamp))
	return event, nil
}

// lastTimestamp reads the newest timestamp written to logKey.
func (r *Recorder) lastTimestamp(logKey string) (time.Time, bool) {
	data, ok, err := r.store.Get(logKey + domain.KeyLastTimestampSuffix)
	if err != nil || !ok {
		return time.Time{}, false
	}
	last, err := time.Parse(time.RFC3339Nano, string(data))
	if err != nil {
		r.logger.Warn("malformed last timestamp, ignoring", zap.String("log", logKey), zap.Error(err))
		return time.Time{}, false
	}
	return last, true
}

// claimed returns the event stored in a close claim, or fallback when the
// claim cannot be read.
func (r *Recorder) claimed(claimKey string, fallback domain.BehavioralEvent) domain.BehavioralEvent {
	data, ok, err := r.store.Get(claimKey)
	if err != nil || !ok {
		return fallback
	}
	var e domain.BehavioralEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return fallback
	}
	return e
}

// Events returns events from both logs with timestamps in [start, end],
// sorted chronologically. A zero bound is open.
func (r *Recorder) Events(ctx context.Context, start, end time.Time) ([]domain.BehavioralEvent, error) {
	var all []domain.BehavioralEvent
	for _, logKey := range []string{domain.LogPurchaseIntent, domain.LogUsageSession} {
		events, err := r.entries(logKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", logKey, err)
		}
		for _, e := range events {
			if !start.IsZero() && e.Timestamp.Before(start) {
				continue
			}
			if !end.IsZero() && e.Timestamp.After(end) {
				continue
			}
			all = append(all, e)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all, nil
}

func (r *Recorder) entries(logKey string) ([]domain.BehavioralEvent, error) {
	records, err := r.store.Entries(logKey)
	if err != nil {
		return nil, err
	}
	events := make([]domain.BehavioralEvent, 0, len(records))
	for _, rec := range records {
		var e domain.BehavioralEvent
		if err := json.Unmarshal(rec, &e); err != nil {
			r.logger.Warn("skipping malformed log record",
				zap.String("log", logKey),
				zap.Error(err))
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func logFor(kind domain.EventKind) string {
	if kind.IsUsageKind() {
		return domain.LogUsageSession
	}
	return domain.LogPurchaseIntent
}
