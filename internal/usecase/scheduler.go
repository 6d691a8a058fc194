package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
	"github.com/eliteGoblin/focusd/appgate/internal/idgen"
)

// UnblockScheduler governs temporary unblock windows.
// State is always derived from the stored ExpiresAt; expiry is checked
// lazily by whichever context runs next.
type UnblockScheduler struct {
	state   *StateStore
	effects *Effects
	clock   domain.Clock
	newID   func() string
	logger  *zap.Logger
}

// NewUnblockScheduler creates a scheduler.
func NewUnblockScheduler(state *StateStore, effects *Effects, clock domain.Clock, logger *zap.Logger) *UnblockScheduler {
	return NewUnblockSchedulerWithDeps(state, effects, clock, idgen.NewWindow, logger)
}

// NewUnblockSchedulerWithDeps creates a scheduler with an injectable ID source (for testing).
func NewUnblockSchedulerWithDeps(state *StateStore, effects *Effects, clock domain.Clock, newID func() string, logger *zap.Logger) *UnblockScheduler {
	return &UnblockScheduler{
		state:   state,
		effects: effects,
		clock:   clock,
		newID:   newID,
		logger:  logger,
	}
}

// GrantUnblock opens a window, or extends the live one. A stale window is
// closed first so its close event is never lost.
func (s *UnblockScheduler) GrantUnblock(ctx context.Context, durationMinutes int, meta domain.WindowMetadata) (*domain.UnblockWindow, error) {
	if durationMinutes <= 0 {
		return nil, domain.ErrInvalidDuration
	}
	if !meta.PurchaseType.Valid() {
		return nil, domain.ErrInvalidPurchase
	}

	snap, err := s.state.Snapshot()
	if err != nil {
		return nil, err
	}
	if snap.Apps.Len() == 0 {
		return nil, domain.ErrNoBlockedApps
	}
	if meta.AppIndex != nil {
		if _, err := snap.Apps.Get(*meta.AppIndex); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	t, window := grantTransition(snap, now, durationMinutes, meta, s.newID)
	if err := s.effects.Apply(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("unblock granted",
		zap.String("window_id", window.ID),
		zap.Time("expires_at", window.ExpiresAt),
		zap.Bool("extended", t.Events[len(t.Events)-1].Extended))
	return window, nil
}

// grantTransition computes the effects of a grant. Exactly one window exists
// afterwards: a live window keeps its ID and StartTime and only moves ExpiresAt.
func grantTransition(snap Snapshot, now time.Time, minutes int, meta domain.WindowMetadata, newID func() string) (Transition, *domain.UnblockWindow) {
	var t Transition
	duration := time.Duration(minutes) * time.Minute

	var window domain.UnblockWindow
	extended := false
	switch domain.DeriveState(snap.Window, now) {
	case domain.StateUnblockGranted:
		window = *snap.Window
		window.ExpiresAt = now.Add(duration)
		window.DurationMinutes = minutes
		if meta != (domain.WindowMetadata{}) {
			window.Metadata = meta
		}
		extended = true
	case domain.StateExpired:
		t.merge(closeWindow(snap.Window, snap.Apps, now))
		fallthrough
	default:
		window = domain.UnblockWindow{
			ID:              newID(),
			StartTime:       now,
			DurationMinutes: minutes,
			ExpiresAt:       now.Add(duration),
			Metadata:        meta,
		}
	}

	granted := domain.BehavioralEvent{
		Timestamp:    now,
		Kind:         domain.EventUnblockGranted,
		WindowID:     window.ID,
		PurchaseType: meta.PurchaseType,
		Category:     meta.Category,
		Mood:         meta.Mood,
		MoodNotes:    meta.MoodNotes,
		AppIndex:     meta.AppIndex,
		Duration:     duration,
		Extended:     extended,
	}
	if meta.AppIndex != nil {
		granted.AppName = snap.Apps.NameAt(*meta.AppIndex)
	}

	t.WindowOp, t.Window = Put, &window
	t.Events = append(t.Events, granted)
	// A pending re-apply from closing the stale window is superseded by the grant.
	t.Commands = []Command{{Kind: CmdClearRestriction}}
	return t, &window
}

// Reconcile closes the window if it has expired. Safe to call from any
// trigger path any number of times. Returns whether a window was closed.
func (s *UnblockScheduler) Reconcile(ctx context.Context) (bool, error) {
	snap, err := s.state.Snapshot()
	if err != nil {
		return false, err
	}

	now := s.clock.Now()
	if domain.DeriveState(snap.Window, now) != domain.StateExpired {
		return false, nil
	}

	s.logger.Info("unblock window expired, re-blocking",
		zap.String("window_id", snap.Window.ID),
		zap.Time("expires_at", snap.Window.ExpiresAt))
	if err := s.effects.Apply(ctx, closeWindow(snap.Window, snap.Apps, now)); err != nil {
		return false, err
	}
	return true, nil
}

// State returns the scheduler state derived from the stored window.
func (s *UnblockScheduler) State(ctx context.Context) (domain.SchedulerState, error) {
	w, err := s.state.Window()
	if err != nil {
		return domain.StateBlocked, err
	}
	return domain.DeriveState(w, s.clock.Now()), nil
}

// Current returns the stored window, nil when blocked.
func (s *UnblockScheduler) Current(ctx context.Context) (*domain.UnblockWindow, error) {
	return s.state.Window()
}
