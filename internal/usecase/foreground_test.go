package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// A window that expired while nothing ran is closed before any prompt is shown.
func TestForeground_ActivateReblocksStaleWindowFirst(t *testing.T) {
	h := newHarness()
	h.withApps("steam")
	ctx := context.Background()

	_, err := h.scheduler.GrantUnblock(ctx, 15, domain.WindowMetadata{})
	require.NoError(t, err)
	_, err = h.router.Handle(ctx, signal(domain.SignalThresholdWarning))
	require.NoError(t, err)

	h.clock.Advance(3 * time.Hour)
	prompt, err := h.foreground.Activate(ctx)
	require.NoError(t, err)

	assert.True(t, h.restriction.active)
	assert.Len(t, h.eventsOfKind(domain.EventUnblockClosed), 1)
	assert.True(t, prompt.ShowIntentPrompt)
	assert.True(t, prompt.ReopenTargetApp)
}

func TestForeground_SingleAppIsTarget(t *testing.T) {
	h := newHarness()
	h.withApps("steam")
	require.NoError(t, h.state.SetFlag(domain.KeyShowIntentPrompt, true))

	prompt, err := h.foreground.Activate(context.Background())
	require.NoError(t, err)

	require.NotNil(t, prompt.Target)
	assert.Equal(t, "steam", prompt.Target.Token)
	assert.False(t, prompt.NeedsSelection())
}

// With several apps the user picks; nothing is guessed.
func TestForeground_SeveralAppsNeedSelection(t *testing.T) {
	h := newHarness()
	h.withApps("steam", "epic", "temu")
	require.NoError(t, h.state.SetFlag(domain.KeyShowIntentPrompt, true))
	ctx := context.Background()

	prompt, err := h.foreground.Activate(ctx)
	require.NoError(t, err)

	assert.Nil(t, prompt.Target)
	assert.Len(t, prompt.Candidates, 3)
	assert.True(t, prompt.NeedsSelection())

	app, err := h.foreground.ResolveTarget(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "epic", app.Token)

	_, err = h.foreground.ResolveTarget(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrAppIndexOutOfRange)
}

func TestForeground_DismissPrompt(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.router.Handle(ctx, signal(domain.SignalThresholdWarning))
	require.NoError(t, err)

	require.NoError(t, h.foreground.DismissPrompt(ctx))

	flags, err := h.state.Flags()
	require.NoError(t, err)
	assert.Equal(t, domain.PromptFlags{}, flags)
}

func TestForeground_AppMutationsReapplyWhenBlocked(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.foreground.AddApp(ctx, "steam")
	require.NoError(t, err)
	set, err := h.foreground.AddApp(ctx, "epic")
	require.NoError(t, err)
	assert.Equal(t, []string{"steam", "epic"}, h.restriction.applied)
	assert.Equal(t, 2, set.Len())

	_, err = h.foreground.AddApp(ctx, "steam")
	assert.ErrorIs(t, err, domain.ErrDuplicateApp)

	set, err = h.foreground.RenameApp(ctx, 1, "Games")
	require.NoError(t, err)
	assert.Equal(t, "Games", set.Apps[1].Name)

	set, err = h.foreground.RemoveApp(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"epic"}, h.restriction.applied)
	assert.Equal(t, domain.BlockedApp{Token: "epic", Name: "Games", Index: 0}, set.Apps[0])

	listed, err := h.foreground.ListApps(ctx)
	require.NoError(t, err)
	assert.Equal(t, set, listed)
}

func TestForeground_AppMutationsDuringWindowKeepAccess(t *testing.T) {
	h := newHarness()
	h.withApps("steam")
	ctx := context.Background()
	_, err := h.scheduler.GrantUnblock(ctx, 15, domain.WindowMetadata{})
	require.NoError(t, err)
	calls := h.restriction.applyCalls

	_, err = h.foreground.AddApp(ctx, "epic")
	require.NoError(t, err)

	assert.Equal(t, calls, h.restriction.applyCalls)
	assert.False(t, h.restriction.active)
}
