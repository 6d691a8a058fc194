package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// PendingPrompt is what the foreground should show after activation.
type PendingPrompt struct {
	ShowIntentPrompt bool
	ReopenTargetApp  bool
	// Candidates are the designated apps the user picks from.
	Candidates []domain.BlockedApp
	// Target is set only when exactly one app is designated. The monitoring
	// signal does not say which app triggered it, so with several apps the
	// user must choose.
	Target *domain.BlockedApp
}

// NeedsSelection reports whether the user must pick the app themselves.
func (p PendingPrompt) NeedsSelection() bool {
	return p.ShowIntentPrompt && p.Target == nil && len(p.Candidates) > 1
}

// Foreground is the foreground application's session over the shared store.
// It holds no state between calls; every call re-reads the store.
type Foreground struct {
	state       *StateStore
	scheduler   *UnblockScheduler
	restriction *RestrictionController
	logger      *zap.Logger
}

// NewForeground creates a foreground session.
func NewForeground(state *StateStore, scheduler *UnblockScheduler, restriction *RestrictionController, logger *zap.Logger) *Foreground {
	return &Foreground{
		state:       state,
		scheduler:   scheduler,
		restriction: restriction,
		logger:      logger,
	}
}

// Activate re-blocks a stale window before anything else, then reports the
// pending prompt handed over by the monitoring context.
func (f *Foreground) Activate(ctx context.Context) (PendingPrompt, error) {
	closed, err := f.scheduler.Reconcile(ctx)
	if err != nil {
		return PendingPrompt{}, fmt.Errorf("failed to reconcile window: %w", err)
	}
	if closed {
		f.logger.Info("stale unblock window closed on activation")
	}

	flags, err := f.state.Flags()
	if err != nil {
		return PendingPrompt{}, err
	}
	apps, err := f.state.Apps()
	if err != nil {
		return PendingPrompt{}, err
	}

	prompt := PendingPrompt{
		ShowIntentPrompt: flags.ShowIntentPrompt,
		ReopenTargetApp:  flags.ReopenTargetApp,
		Candidates:       apps.Apps,
	}
	if apps.Len() == 1 {
		target := apps.Apps[0]
		prompt.Target = &target
	}
	return prompt, nil
}

// ResolveTarget returns the app the user selected.
func (f *Foreground) ResolveTarget(ctx context.Context, index int) (domain.BlockedApp, error) {
	apps, err := f.state.Apps()
	if err != nil {
		return domain.BlockedApp{}, err
	}
	return apps.Get(index)
}

// DismissPrompt clears both prompt flags.
func (f *Foreground) DismissPrompt(ctx context.Context) error {
	if err := f.state.SetFlag(domain.KeyShowIntentPrompt, false); err != nil {
		return err
	}
	return f.state.SetFlag(domain.KeyReopenTargetApp, false)
}

// ListApps returns the designated apps.
func (f *Foreground) ListApps(ctx context.Context) (domain.BlockedAppSet, error) {
	return f.state.Apps()
}

// AddApp designates a new app.
func (f *Foreground) AddApp(ctx context.Context, token string) (domain.BlockedAppSet, error) {
	return f.mutateApps(ctx, func(set domain.BlockedAppSet) (domain.BlockedAppSet, error) {
		return set.Add(token)
	})
}

// RemoveApp drops the app at index and renumbers the rest.
func (f *Foreground) RemoveApp(ctx context.Context, index int) (domain.BlockedAppSet, error) {
	return f.mutateApps(ctx, func(set domain.BlockedAppSet) (domain.BlockedAppSet, error) {
		return set.Remove(index)
	})
}

// RenameApp sets the display name of the app at index.
func (f *Foreground) RenameApp(ctx context.Context, index int, name string) (domain.BlockedAppSet, error) {
	return f.mutateApps(ctx, func(set domain.BlockedAppSet) (domain.BlockedAppSet, error) {
		return set.Rename(index, name)
	})
}

// mutateApps saves the changed set and re-applies the block to it unless a
// live window currently allows access.
func (f *Foreground) mutateApps(ctx context.Context, mutate func(domain.BlockedAppSet) (domain.BlockedAppSet, error)) (domain.BlockedAppSet, error) {
	set, err := f.state.Apps()
	if err != nil {
		return set, err
	}
	updated, err := mutate(set)
	if err != nil {
		return set, err
	}
	if err := f.state.SaveApps(updated); err != nil {
		return set, fmt.Errorf("failed to save blocked apps: %w", err)
	}

	f.logger.Info("blocked apps updated",
		zap.Int("before", set.Len()),
		zap.Int("after", updated.Len()))

	state, err := f.scheduler.State(ctx)
	if err != nil {
		return updated, err
	}
	if state != domain.StateUnblockGranted {
		_ = f.restriction.ApplyRestriction(ctx, updated)
	}
	return updated, nil
}
