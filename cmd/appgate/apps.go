package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage the designated apps",
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List designated apps",
	RunE:  withApp(runAppsList),
}

var appsAddCmd = &cobra.Command{
	Use:   "add <token>",
	Short: "Designate an app (profile id such as steam, or a process name)",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runAppsAdd),
}

var appsRemoveCmd = &cobra.Command{
	Use:   "remove <index>",
	Short: "Stop blocking the app at index",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runAppsRemove),
}

var appsRenameCmd = &cobra.Command{
	Use:   "rename <index> [name]",
	Short: "Rename the app at index (no name restores the default)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  withApp(runAppsRename),
}

func init() {
	appsCmd.AddCommand(appsListCmd, appsAddCmd, appsRemoveCmd, appsRenameCmd)
	rootCmd.AddCommand(appsCmd)
}

func runAppsList(a *app, cmd *cobra.Command, args []string) error {
	set, err := a.foreground.ListApps(cmd.Context())
	if err != nil {
		return err
	}
	printApps(a, set)
	return nil
}

func runAppsAdd(a *app, cmd *cobra.Command, args []string) error {
	set, err := a.foreground.AddApp(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printApps(a, set)
	return nil
}

func runAppsRemove(a *app, cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	set, err := a.foreground.RemoveApp(cmd.Context(), index)
	if err != nil {
		return err
	}
	printApps(a, set)
	return nil
}

func runAppsRename(a *app, cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	name := ""
	if len(args) == 2 {
		name = args[1]
	}
	set, err := a.foreground.RenameApp(cmd.Context(), index, name)
	if err != nil {
		return err
	}
	printApps(a, set)
	return nil
}

func printApps(a *app, set domain.BlockedAppSet) {
	if set.Len() == 0 {
		fmt.Println("No apps designated. Add one with: appgate apps add <token>")
		return
	}
	for _, blocked := range set.Apps {
		fmt.Printf("  [%d] %-20s %s (%s)\n",
			blocked.Index, blocked.Name, blocked.Token, a.profiles.DisplayName(blocked.Token))
	}
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid app index %q", s)
	}
	return index, nil
}
