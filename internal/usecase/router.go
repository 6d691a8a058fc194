package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// Deep links carried in notification payloads.
const (
	LinkIntent       = "appgate://intent"
	LinkIntentReopen = "appgate://intent?reopen=1"
	LinkLogPurchase  = "appgate://log-purchase"
)

// RoutePolicy holds the tunables Route depends on.
type RoutePolicy struct {
	// A shopping session must last longer than this to prompt a purchase log.
	ShoppingThreshold time.Duration
}

// DefaultRoutePolicy returns the product defaults.
func DefaultRoutePolicy() RoutePolicy {
	return RoutePolicy{
		ShoppingThreshold: domain.DefaultShoppingSessionThreshold,
	}
}

// Route computes the effects of one monitoring signal. It is pure: the same
// inputs always give the same transition, and routing a signal against the
// snapshot it produced yields no new events.
func Route(sig domain.MonitoringSignal, snap Snapshot, now time.Time, policy RoutePolicy) Transition {
	switch sig.Kind {
	case domain.SignalIntervalStart:
		return routeIntervalStart(snap, now)
	case domain.SignalIntervalEnd:
		return routeIntervalEnd(snap, now, policy)
	case domain.SignalThresholdWarning:
		return routeThresholdWarning(sig)
	case domain.SignalThresholdReached:
		return routeThresholdReached(sig, snap, now)
	}
	return Transition{}
}

// routeIntervalStart re-asserts the block unless a live window allows access.
func routeIntervalStart(snap Snapshot, now time.Time) Transition {
	switch domain.DeriveState(snap.Window, now) {
	case domain.StateExpired:
		return closeWindow(snap.Window, snap.Apps, now)
	case domain.StateUnblockGranted:
		return Transition{}
	}
	return Transition{
		Commands: []Command{{Kind: CmdApplyRestriction, Apps: snap.Apps}},
	}
}

func routeIntervalEnd(snap Snapshot, now time.Time, policy RoutePolicy) Transition {
	var t Transition
	if domain.DeriveState(snap.Window, now) == domain.StateExpired {
		t.merge(closeWindow(snap.Window, snap.Apps, now))
	}

	if snap.Session == nil {
		return t
	}

	t.SessionOp = Delete
	elapsed := now.Sub(snap.Session.StartTime)
	if elapsed <= policy.ShoppingThreshold {
		return t
	}

	ended := domain.BehavioralEvent{
		Timestamp:     now,
		Kind:          domain.EventShoppingSessionEnded,
		Duration:      elapsed,
		UsageOccurred: true,
	}
	if snap.Window != nil {
		ended.WindowID = snap.Window.ID
	}
	t.Events = append(t.Events, ended)
	t.Commands = append(t.Commands, Command{
		Kind: CmdNotify,
		Notification: domain.Notification{
			Title:    "Log your purchase?",
			Body:     fmt.Sprintf("You shopped for %d minutes. Did you buy anything?", int(elapsed.Round(time.Minute)/time.Minute)),
			Payload:  map[string]string{"link": LinkLogPurchase},
			Priority: domain.PriorityNormal,
		},
	})
	return t
}

func routeThresholdWarning(sig domain.MonitoringSignal) Transition {
	return Transition{
		Flags: []FlagWrite{
			{Key: domain.KeyShowIntentPrompt, Value: true},
			{Key: domain.KeyReopenTargetApp, Value: true},
		},
		Commands: []Command{{
			Kind: CmdNotify,
			Notification: domain.Notification{
				Title:    "App blocked",
				Body:     "Tell appgate why you want to open it.",
				Payload:  map[string]string{"link": LinkIntent, "activity": sig.Activity, "event": sig.Event},
				Priority: domain.PriorityHigh,
			},
		}},
	}
}

// routeThresholdReached opens a shopping session. Duplicate delivery keeps
// the earliest start and does not record or notify again.
func routeThresholdReached(sig domain.MonitoringSignal, snap Snapshot, now time.Time) Transition {
	t := Transition{
		Flags: []FlagWrite{{Key: domain.KeyShowIntentPrompt, Value: true}},
	}

	if w := snap.Window; w != nil && !w.IsExpired(now) && !w.UsageObserved {
		observed := *w
		observed.UsageObserved = true
		t.WindowOp, t.Window = MarkUsage, &observed
	}

	if snap.Session != nil {
		return t
	}

	t.SessionOp, t.Session = Put, &domain.ShoppingSession{StartTime: now}
	started := domain.BehavioralEvent{
		Timestamp: now,
		Kind:      domain.EventShoppingSessionStarted,
	}
	if snap.Window != nil {
		started.WindowID = snap.Window.ID
	}
	t.Events = append(t.Events, started)
	t.Commands = append(t.Commands, Command{
		Kind: CmdNotify,
		Notification: domain.Notification{
			Title:    "Shopping app opened",
			Body:     "Was this planned or an impulse?",
			Payload:  map[string]string{"link": LinkIntentReopen, "activity": sig.Activity, "event": sig.Event},
			Priority: domain.PriorityNormal,
		},
	})
	return t
}

// Router is the entry point for monitoring signals. Each Handle call reads
// the store fresh; nothing is remembered between invocations.
type Router struct {
	state   *StateStore
	effects *Effects
	clock   domain.Clock
	policy  RoutePolicy
	logger  *zap.Logger
}

// NewRouter creates a router.
func NewRouter(state *StateStore, effects *Effects, clock domain.Clock, policy RoutePolicy, logger *zap.Logger) *Router {
	return &Router{
		state:   state,
		effects: effects,
		clock:   clock,
		policy:  policy,
		logger:  logger,
	}
}

// Handle routes sig against the current store snapshot and applies the result.
func (r *Router) Handle(ctx context.Context, sig domain.MonitoringSignal) (Transition, error) {
	snap, err := r.state.Snapshot()
	if err != nil {
		return Transition{}, err
	}

	now := r.clock.Now()
	t := Route(sig, snap, now, r.policy)

	r.logger.Info("signal routed",
		zap.String("kind", string(sig.Kind)),
		zap.String("activity", sig.Activity),
		zap.String("event", sig.Event),
		zap.String("state", string(domain.DeriveState(snap.Window, now))),
		zap.Int("events", len(t.Events)),
		zap.Int("commands", len(t.Commands)))

	if err := r.effects.Apply(ctx, t); err != nil {
		return t, fmt.Errorf("handle %s: %w", sig.Kind, err)
	}
	return t, nil
}
