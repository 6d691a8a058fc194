package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
	"github.com/eliteGoblin/focusd/appgate/internal/usecase"
)

var unblockCmd = &cobra.Command{
	Use:   "unblock",
	Short: "Open (or extend) an unblock window",
	Long: `Lifts the restriction on every designated app for a fixed window.
Granting while a window is live extends it; the window keeps its id.`,
	RunE: withApp(runUnblock),
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Activate the foreground session and show pending prompts",
	Long: `Re-blocks a stale window first, then shows any prompt the monitor
left behind (log a purchase, reopen an app).`,
	RunE: withApp(runOpen),
}

var intentCmd = &cobra.Command{
	Use:   "intent",
	Short: "Log a purchase intent",
	RunE:  withApp(runIntent),
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Record a closed usage session",
	RunE:  withApp(runUsage),
}

var signalCmd = &cobra.Command{
	Use:   "signal <kind>",
	Short: "Deliver a monitoring signal by hand",
	Long: `Kinds: interval_start, interval_end, threshold_warning, threshold_reached.
Delivering the same signal twice has no further effect.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runSignal),
}

var (
	unblockMinutes int
	meta           metaFlags

	openDismiss bool

	intentAmount float64

	usageApp      int
	usageDuration time.Duration

	signalActivity string
	signalEvent    string
)

// metaFlags are the intent flags shared by unblock and intent.
type metaFlags struct {
	purchaseType string
	category     string
	mood         string
	notes        string
	app          int
}

func (m *metaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.purchaseType, "type", "", "Purchase type: planned or impulse")
	cmd.Flags().StringVar(&m.category, "category", "", "Purchase category")
	cmd.Flags().StringVar(&m.mood, "mood", "", "How you feel right now")
	cmd.Flags().StringVar(&m.notes, "notes", "", "Free-form mood notes")
	cmd.Flags().IntVar(&m.app, "app", -1, "Index of the app this is about")
}

func (m *metaFlags) appIndex() *int {
	if m.app < 0 {
		return nil
	}
	index := m.app
	return &index
}

func init() {
	unblockCmd.Flags().IntVar(&unblockMinutes, "minutes", 0, "Window length in minutes (default from config)")
	meta.register(unblockCmd)
	meta.register(intentCmd)
	intentCmd.Flags().Float64Var(&intentAmount, "amount", 0, "Amount spent")

	openCmd.Flags().BoolVar(&openDismiss, "dismiss", false, "Dismiss pending prompts without logging")

	usageCmd.Flags().IntVar(&usageApp, "app", 0, "Index of the app used")
	usageCmd.Flags().DurationVar(&usageDuration, "duration", 0, "How long the app was used")
	_ = usageCmd.MarkFlagRequired("duration")

	signalCmd.Flags().StringVar(&signalActivity, "activity", "appgate.manual", "Activity name")
	signalCmd.Flags().StringVar(&signalEvent, "event", "", "Threshold event name")

	rootCmd.AddCommand(unblockCmd, openCmd, intentCmd, usageCmd, signalCmd)
}

func runUnblock(a *app, cmd *cobra.Command, args []string) error {
	minutes := unblockMinutes
	if minutes == 0 {
		minutes = a.cfg.Unblock.DurationMinutes
	}

	w, err := a.scheduler.GrantUnblock(cmd.Context(), minutes, domain.WindowMetadata{
		PurchaseType: domain.PurchaseType(meta.purchaseType),
		Category:     meta.category,
		Mood:         meta.mood,
		MoodNotes:    meta.notes,
		AppIndex:     meta.appIndex(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Unblocked until %s (window %s)\n", w.ExpiresAt.Local().Format("15:04:05"), w.ID)
	return nil
}

func runOpen(a *app, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	prompt, err := a.foreground.Activate(ctx)
	if err != nil {
		return err
	}

	if openDismiss {
		return a.foreground.DismissPrompt(ctx)
	}

	if !prompt.ShowIntentPrompt && !prompt.ReopenTargetApp {
		fmt.Println("Nothing pending.")
		return nil
	}
	if prompt.ShowIntentPrompt {
		fmt.Println("You spent a while shopping. Log it with: appgate intent --type planned|impulse --amount N")
	}
	if prompt.ReopenTargetApp {
		fmt.Println("A blocked app was stopped. To open it on purpose: appgate unblock")
	}
	switch {
	case prompt.Target != nil:
		fmt.Printf("App: [%d] %s\n", prompt.Target.Index, prompt.Target.Name)
	case prompt.NeedsSelection():
		fmt.Println("Which app was it? Pass --app <index>:")
		for _, c := range prompt.Candidates {
			fmt.Printf("  [%d] %s\n", c.Index, c.Name)
		}
	}
	return nil
}

func runIntent(a *app, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	intent := usecase.Intent{
		Type:      domain.PurchaseType(meta.purchaseType),
		Category:  meta.category,
		Mood:      meta.mood,
		MoodNotes: meta.notes,
		Amount:    intentAmount,
	}
	target, err := intentTarget(a, cmd)
	if err != nil {
		return err
	}
	if target != nil {
		index := target.Index
		intent.AppIndex = &index
		intent.AppName = target.Name
	}
	// Expired windows were closed on launch, so any window here is live
	if w, err := a.scheduler.Current(ctx); err == nil && w != nil {
		intent.WindowID = w.ID
	}

	event, err := a.recorder.RecordIntent(ctx, intent)
	if err != nil {
		return err
	}
	if err := a.foreground.DismissPrompt(ctx); err != nil {
		return err
	}

	fmt.Printf("Logged %s\n", event.ID)
	return nil
}

// intentTarget is the app from --app, or the only designated app.
func intentTarget(a *app, cmd *cobra.Command) (*domain.BlockedApp, error) {
	ctx := cmd.Context()
	if index := meta.appIndex(); index != nil {
		target, err := a.foreground.ResolveTarget(ctx, *index)
		if err != nil {
			return nil, err
		}
		return &target, nil
	}
	prompt, err := a.foreground.Activate(ctx)
	if err != nil {
		return nil, err
	}
	return prompt.Target, nil
}

func runUsage(a *app, cmd *cobra.Command, args []string) error {
	event, err := a.recorder.RecordUsageSession(cmd.Context(), usageApp, usageDuration)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %s of usage (%s)\n", event.Duration, event.ID)
	return nil
}

func runSignal(a *app, cmd *cobra.Command, args []string) error {
	kind, err := domain.ParseSignalKind(args[0])
	if err != nil {
		return err
	}

	t, err := a.router.Handle(cmd.Context(), domain.MonitoringSignal{
		Kind:     kind,
		Activity: signalActivity,
		Event:    signalEvent,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Delivered %s: %d event(s), %d command(s)\n", kind, len(t.Events), len(t.Commands))
	return nil
}
