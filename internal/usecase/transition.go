package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// WriteOp says what to do with one store cell.
type WriteOp int

const (
	Keep WriteOp = iota
	Put
	Delete
	// MarkUsage sets UsageObserved on the stored window if it is still
	// Window.ID, re-reading it first so a concurrent extension survives.
	MarkUsage
)

// CommandKind is a side effect outside the store.
type CommandKind string

const (
	CmdApplyRestriction CommandKind = "apply_restriction"
	CmdClearRestriction CommandKind = "clear_restriction"
	CmdNotify           CommandKind = "notify"
)

// Command is one side effect produced by a transition.
type Command struct {
	Kind         CommandKind
	Apps         domain.BlockedAppSet // For apply_restriction
	Notification domain.Notification  // For notify
}

// FlagWrite sets one prompt flag.
type FlagWrite struct {
	Key   string
	Value bool
}

// Transition is the outcome of a pure state computation: store writes,
// events to append and commands to execute.
type Transition struct {
	WindowOp  WriteOp
	Window    *domain.UnblockWindow
	SessionOp WriteOp
	Session   *domain.ShoppingSession
	Flags     []FlagWrite
	Events    []domain.BehavioralEvent
	Commands  []Command
}

// HasCommand reports whether the transition carries a command of kind.
func (t Transition) HasCommand(kind CommandKind) bool {
	for _, c := range t.Commands {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// merge appends other's effects; later writes win.
func (t *Transition) merge(other Transition) {
	if other.WindowOp != Keep {
		t.WindowOp, t.Window = other.WindowOp, other.Window
	}
	if other.SessionOp != Keep {
		t.SessionOp, t.Session = other.SessionOp, other.Session
	}
	t.Flags = append(t.Flags, other.Flags...)
	t.Events = append(t.Events, other.Events...)
	t.Commands = append(t.Commands, other.Commands...)
}

// Effects executes transitions against the store and capabilities.
type Effects struct {
	state       *StateStore
	restriction *RestrictionController
	recorder    *Recorder
	dispatcher  *Dispatcher
	logger      *zap.Logger
}

// NewEffects wires the executors. dispatcher may be nil where nothing notifies.
func NewEffects(state *StateStore, restriction *RestrictionController, recorder *Recorder, dispatcher *Dispatcher, logger *zap.Logger) *Effects {
	return &Effects{
		state:       state,
		restriction: restriction,
		recorder:    recorder,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Apply executes t. Ordering keeps the device on the blocked side of any
// partial failure: re-apply runs before the window is removed and clear runs
// only after the new window is persisted.
//
// Capability and notification failures are logged and do not fail Apply;
// store failures do.
func (e *Effects) Apply(ctx context.Context, t Transition) error {
	for _, c := range t.Commands {
		if c.Kind == CmdApplyRestriction {
			_ = e.restriction.ApplyRestriction(ctx, c.Apps)
		}
	}

	var errs []error
	switch t.WindowOp {
	case Put:
		if err := e.state.SaveWindow(t.Window); err != nil {
			return fmt.Errorf("failed to save window: %w", err)
		}
	case Delete:
		if err := e.state.ClearWindow(); err != nil {
			return fmt.Errorf("failed to clear window: %w", err)
		}
	case MarkUsage:
		if err := e.markUsage(t.Window.ID); err != nil {
			return fmt.Errorf("failed to mark window usage: %w", err)
		}
	}
	switch t.SessionOp {
	case Put:
		if err := e.state.SaveSession(t.Session); err != nil {
			errs = append(errs, fmt.Errorf("failed to save session: %w", err))
		}
	case Delete:
		if err := e.state.ClearSession(); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear session: %w", err))
		}
	}
	for _, f := range t.Flags {
		if err := e.state.SetFlag(f.Key, f.Value); err != nil {
			errs = append(errs, fmt.Errorf("failed to set %s: %w", f.Key, err))
		}
	}
	for _, ev := range t.Events {
		if _, err := e.recorder.Append(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}

	for _, c := range t.Commands {
		switch c.Kind {
		case CmdClearRestriction:
			_ = e.restriction.ClearRestriction(ctx)
		case CmdNotify:
			if e.dispatcher == nil {
				e.logger.Debug("no dispatcher, notification dropped",
					zap.String("title", c.Notification.Title))
				continue
			}
			_, _ = e.dispatcher.ScheduleLocal(ctx, c.Notification)
		}
	}

	return errors.Join(errs...)
}

// markUsage flags the stored window as used. The read sits right before the
// write so only the flag changes; the window as the foreground last wrote it
// is kept otherwise.
func (e *Effects) markUsage(windowID string) error {
	w, err := e.state.Window()
	if err != nil {
		return err
	}
	if w == nil || w.ID != windowID || w.UsageObserved {
		return nil
	}
	w.UsageObserved = true
	return e.state.SaveWindow(w)
}

// closeWindow re-applies the block, removes w and records how long it stayed open.
func closeWindow(w *domain.UnblockWindow, apps domain.BlockedAppSet, now time.Time) Transition {
	event := domain.BehavioralEvent{
		Timestamp:     now,
		Kind:          domain.EventUnblockClosed,
		WindowID:      w.ID,
		PurchaseType:  w.Metadata.PurchaseType,
		Category:      w.Metadata.Category,
		Mood:          w.Metadata.Mood,
		AppIndex:      w.Metadata.AppIndex,
		Duration:      w.OpenDuration(now),
		UsageOccurred: w.UsageObserved,
	}
	if w.Metadata.AppIndex != nil {
		event.AppName = apps.NameAt(*w.Metadata.AppIndex)
	}
	return Transition{
		WindowOp: Delete,
		Events:   []domain.BehavioralEvent{event},
		Commands: []Command{{Kind: CmdApplyRestriction, Apps: apps}},
	}
}
