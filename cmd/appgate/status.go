package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current block state",
	RunE:  withApp(runStatus),
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Manage notification permission",
}

var notificationsAllowCmd = &cobra.Command{
	Use:   "allow",
	Short: "Allow appgate to post local notifications",
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if err := a.notifier.RequestAuthorization(); err != nil {
			return err
		}
		return printAuth(a)
	}),
}

var notificationsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show notification permission",
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		return printAuth(a)
	}),
}

func init() {
	notificationsCmd.AddCommand(notificationsAllowCmd, notificationsStatusCmd)
	rootCmd.AddCommand(statusCmd, notificationsCmd)
}

func runStatus(a *app, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := time.Now()

	snap, err := a.state.Snapshot()
	if err != nil {
		return err
	}
	restricted, err := a.controller.IsRestrictionActive(ctx)
	if err != nil {
		return err
	}

	fmt.Println("=== appgate status ===")
	fmt.Printf("Store:       %s (%s)\n", a.cfg.Store.Driver, a.cfg.DataDir)
	fmt.Printf("Apps:        %d designated, %d restricted\n", snap.Apps.Len(), restricted)

	switch domain.DeriveState(snap.Window, now) {
	case domain.StateUnblockGranted:
		fmt.Printf("State:       unblocked, %s left (window %s)\n",
			snap.Window.Remaining(now).Round(time.Second), snap.Window.ID)
	case domain.StateExpired:
		fmt.Printf("State:       expired (window %s)\n", snap.Window.ID)
	default:
		fmt.Println("State:       blocked")
	}

	if snap.Session != nil {
		fmt.Printf("Shopping:    session open for %s\n", now.Sub(snap.Session.StartTime).Round(time.Second))
	}
	if snap.Flags.ShowIntentPrompt || snap.Flags.ReopenTargetApp {
		fmt.Println("Prompts:     pending, run: appgate open")
	}
	return nil
}

func printAuth(a *app) error {
	status, err := a.notifier.AuthorizationStatus()
	if err != nil {
		return err
	}
	fmt.Printf("Notifications: %s\n", status)
	return nil
}
